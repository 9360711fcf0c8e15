package http

import (
	"time"

	"sharestuff/internal/avatar"
	"sharestuff/internal/domain"
)

const timestampLayout = "2006-01-02 15:04"

type postView struct {
	ID        int64
	Title     string
	Content   string
	Username  string
	UserID    int64
	AvatarURL string
	Timestamp string
	Likes     int
	Liked     bool
	CanEdit   bool
}

type profileView struct {
	Username    string
	AvatarURL   string
	MemberSince string
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timestampLayout)
}

func avatarURLFor(user domain.User) string {
	if user.AvatarURL != "" {
		return user.AvatarURL
	}
	return avatar.URL(user.Username)
}

func toPostView(p domain.Post, viewer domain.Identity, liked map[int64]bool) postView {
	return postView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Username:  p.AuthorUsername,
		UserID:    p.AuthorID,
		AvatarURL: avatar.URL(p.AuthorUsername),
		Timestamp: formatTime(p.CreatedAt),
		Likes:     p.Likes,
		Liked:     liked[p.ID],
		CanEdit:   p.OwnedBy(viewer.UserID),
	}
}

func toProfileView(u domain.User) profileView {
	return profileView{
		Username:    u.Username,
		AvatarURL:   avatarURLFor(u),
		MemberSince: formatTime(u.MemberSince),
	}
}
