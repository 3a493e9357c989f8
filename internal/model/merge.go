package model

// Merge builds an Identity from provider data and an optional profile.
// Provider fields (UID, Email) always win; a profile email is only used when the
// provider reports none.
func Merge(p Principal, prof *Profile) Identity {
	id := Identity{UID: p.UID, Email: p.Email}
	if prof == nil {
		return id
	}
	id.Fullname = prof.Fullname
	id.Username = prof.Username
	id.CreatedAt = prof.CreatedAt
	if id.Email == "" {
		id.Email = prof.Email
	}
	return id
}
