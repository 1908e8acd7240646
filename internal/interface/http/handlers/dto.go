package handlers

import (
	"time"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/campus"
	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// userDTO is the public shape of a user. The password hash and email stay
// internal except on the owner's own profile.
type userDTO struct {
	ID              string         `json:"id"`
	Email           string         `json:"email,omitempty"`
	Name            string         `json:"name"`
	AvatarURL       string         `json:"avatarUrl,omitempty"`
	UniversityID    *string        `json:"universityId,omitempty"`
	XP              int            `json:"xp"`
	Level           int            `json:"level"`
	StreakCount     int            `json:"streakCount"`
	TotalStudyHours float64        `json:"totalStudyHours"`
	Preferences     map[string]any `json:"preferences,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func toOwnUserDTO(u *user.User) userDTO {
	d := toPublicUserDTO(u)
	d.Email = u.Email
	d.Preferences = u.Preferences
	return d
}

func toPublicUserDTO(u *user.User) userDTO {
	return userDTO{
		ID:              u.ID,
		Name:            u.Name,
		AvatarURL:       u.AvatarURL,
		UniversityID:    u.UniversityID,
		XP:              u.XP,
		Level:           u.Level,
		StreakCount:     u.StreakCount,
		TotalStudyHours: u.TotalStudyHours,
		CreatedAt:       u.CreatedAt,
	}
}

type sessionDTO struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  int        `json:"duration"`
	Subject   string     `json:"subject,omitempty"`
	Task      string     `json:"task,omitempty"`
	Completed bool       `json:"completed"`
	XPEarned  int        `json:"xpEarned"`
}

func toSessionDTO(s *session.StudySession) sessionDTO {
	return sessionDTO{
		ID:        s.ID,
		UserID:    s.UserID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Duration:  s.Duration,
		Subject:   s.Subject,
		Task:      s.Task,
		Completed: s.Completed,
		XPEarned:  s.XPEarned,
	}
}

func toSessionDTOs(sessions []*session.StudySession) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionDTO(s))
	}
	return out
}

type achievementDTO struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Icon        string                `json:"icon,omitempty"`
	XPReward    int                   `json:"xpReward"`
	Condition   achievement.Condition `json:"condition"`
	UnlockedAt  *time.Time            `json:"unlockedAt,omitempty"`
}

func toAchievementDTO(a *achievement.Achievement) achievementDTO {
	return achievementDTO{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Icon:        a.Icon,
		XPReward:    a.XPReward,
		Condition:   a.Condition,
	}
}

func toUnlockedDTO(u *achievement.Unlocked) achievementDTO {
	d := toAchievementDTO(u.Achievement)
	at := u.UnlockedAt
	d.UnlockedAt = &at
	return d
}

type friendshipDTO struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requesterId"`
	AddresseeID string    `json:"addresseeId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toFriendshipDTO(f *friendship.Friendship) friendshipDTO {
	return friendshipDTO{
		ID:          f.ID,
		RequesterID: f.RequesterID,
		AddresseeID: f.AddresseeID,
		Status:      string(f.Status),
		CreatedAt:   f.CreatedAt,
	}
}

type campusDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type universityDTO struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Country  string      `json:"country,omitempty"`
	City     string      `json:"city,omitempty"`
	LogoURL  string      `json:"logoUrl,omitempty"`
	Campuses []campusDTO `json:"campuses,omitempty"`
}

func toUniversityDTO(u *campus.University) universityDTO {
	d := universityDTO{
		ID:      u.ID,
		Name:    u.Name,
		Country: u.Country,
		City:    u.City,
		LogoURL: u.LogoURL,
	}
	for _, c := range u.Campuses {
		d.Campuses = append(d.Campuses, toCampusDTO(c))
	}
	return d
}

func toCampusDTO(c *campus.Campus) campusDTO {
	return campusDTO{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}
