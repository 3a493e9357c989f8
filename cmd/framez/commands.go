package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/and161185/framez/internal/feed"
	"github.com/and161185/framez/internal/form"
	"github.com/and161185/framez/internal/guard"
	"github.com/and161185/framez/internal/publish"
	"github.com/and161185/framez/internal/submit"
)

type command struct {
	at  guard.Route
	run func(a *app, ctx context.Context, args []string) int
}

var commands = map[string]command{
	"signup":  {at: guard.RouteSignup, run: (*app).signup},
	"login":   {at: guard.RouteLogin, run: (*app).login},
	"logout":  {at: guard.RouteIndex, run: (*app).logout},
	"whoami":  {at: guard.RouteIndex, run: (*app).whoami},
	"post":    {at: guard.RouteCreate, run: (*app).post},
	"feed":    {at: guard.RouteFeed, run: (*app).listFeed},
	"profile": {at: guard.RouteProfile, run: (*app).profile},
}

// exec runs one command after the route guard admits it.
func (a *app) exec(ctx context.Context, name string, args []string) int {
	c, ok := commands[name]
	if !ok {
		usage(a.errOut)
		return 2
	}
	to, moved, detach := a.enter(c.at)
	defer detach()
	if moved {
		switch to {
		case guard.RouteFeed:
			fmt.Fprintf(a.errOut, "already signed in as %s; run logout first\n", a.who())
		default:
			fmt.Fprintln(a.errOut, "not signed in; run login or signup first")
		}
		return 1
	}
	return c.run(a, ctx, args)
}

func (a *app) signup(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	fullname := fs.String("fullname", "", "full name")
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	f := form.New(form.SignupRules)
	f.Set(form.FieldFullname, *fullname)
	f.Set(form.FieldUsername, *username)
	f.Set(form.FieldEmail, *email)
	f.Set(form.FieldPassword, *password)
	return a.report(f, a.submit.Signup(ctx, f))
}

func (a *app) login(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	f := form.New(form.LoginRules)
	f.Set(form.FieldEmail, *email)
	f.Set(form.FieldPassword, *password)
	return a.report(f, a.submit.Login(ctx, f))
}

func (a *app) report(f *form.Form, out submit.Outcome) int {
	switch out.Status {
	case submit.StatusSucceeded:
		fmt.Fprintf(a.out, "signed in as %s\n", handle(out.Identity.Username, out.Identity.Email))
		return 0
	case submit.StatusInvalid:
		errs := f.Errors()
		for _, field := range f.Rules().Fields() {
			if msg, ok := errs[field]; ok {
				fmt.Fprintf(a.errOut, "%s: %s\n", field, msg)
			}
		}
		return 1
	default:
		fmt.Fprintln(a.errOut, out.Message)
		return 1
	}
}

func (a *app) logout(ctx context.Context, _ []string) int {
	if err := a.submit.SignOut(ctx); err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	if err := a.sessions.Sync(ctx); err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	fmt.Fprintln(a.out, "signed out")
	return 0
}

func (a *app) whoami(context.Context, []string) int {
	id := a.sessions.State().Identity
	if id == nil {
		fmt.Fprintln(a.errOut, "not signed in")
		return 1
	}
	printJSON(a.out, map[string]any{
		"uid":       id.UID,
		"email":     id.Email,
		"fullname":  id.Fullname,
		"username":  id.Username,
		"createdAt": id.CreatedAt,
	})
	return 0
}

func (a *app) post(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	text := fs.String("text", "", "post text")
	image := fs.String("image", "", "image file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	d := &publish.Draft{Text: *text, ImagePath: *image}
	out := a.publish.Publish(ctx, d, a.sessions.State().Identity)
	if out.Status != publish.StatusPublished {
		fmt.Fprintln(a.errOut, out.Message)
		return 1
	}
	fmt.Fprintln(a.out, out.PostID)
	return 0
}

func (a *app) listFeed(ctx context.Context, _ []string) int {
	posts, err := a.feed.ListPosts(ctx, feed.Filter{})
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts yet")
		return 0
	}
	for _, p := range posts {
		printCard(a.out, feed.Card(p, nil))
	}
	return 0
}

func (a *app) profile(ctx context.Context, _ []string) int {
	id := a.sessions.State().Identity
	if id == nil {
		fmt.Fprintln(a.errOut, "not signed in")
		return 1
	}
	v := feed.ProfileView(*id)
	fmt.Fprintf(a.out, "[%s] %s\n@%s\n%s\n\n", v.Initial, v.Fullname, v.Username, v.Email)

	posts, err := a.feed.ListPosts(ctx, feed.ByAuthor(*id))
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 1
	}
	fmt.Fprintf(a.out, "%d posts\n", len(posts))
	for _, p := range posts {
		printCard(a.out, feed.Card(p, nil))
	}
	return 0
}

func (a *app) who() string {
	if id := a.sessions.State().Identity; id != nil {
		return handle(id.Username, id.Email)
	}
	return "unknown"
}

func handle(username, email string) string {
	if username != "" {
		return "@" + username
	}
	return email
}

func printCard(w io.Writer, c feed.CardView) {
	fmt.Fprintf(w, "%s  %s\n", c.Handle, c.Date)
	if c.Text != "" {
		fmt.Fprintf(w, "  %s\n", c.Text)
	}
	if c.HasImage {
		fmt.Fprintf(w, "  [image] %s\n", c.ImageURL)
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
