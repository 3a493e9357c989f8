package feed

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/and161185/framez/internal/model"
)

// UnknownDate stands in for a missing timestamp.
const UnknownDate = "unknown date"

// DateLayout formats post timestamps.
const DateLayout = "Jan 2, 2006 15:04"

// CardView is a post prepared for display.
type CardView struct {
	Handle   string // "@username"
	Text     string
	HasImage bool
	ImageURL string
	Date     string
}

// Card renders a post. Missing fields get placeholders.
func Card(p model.Post, loc *time.Location) CardView {
	name := p.Username
	if name == "" {
		name = model.AnonymousUsername
	}
	v := CardView{Handle: "@" + name, Text: p.Text, Date: UnknownDate}
	if p.ImageURL != nil && strings.TrimSpace(*p.ImageURL) != "" {
		v.HasImage = true
		v.ImageURL = *p.ImageURL
	}
	if p.CreatedAt != nil {
		if loc == nil {
			loc = time.Local
		}
		v.Date = p.CreatedAt.In(loc).Format(DateLayout)
	}
	return v
}

// Profile is the profile screen header.
type Profile struct {
	Initial  string
	Fullname string
	Username string
	Email    string
}

// ProfileView renders the signed-in identity; "U" is the avatar fallback.
func ProfileView(id model.Identity) Profile {
	return Profile{
		Initial:  initial(id.Fullname),
		Fullname: id.Fullname,
		Username: id.Username,
		Email:    id.Email,
	}
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "U"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
