// Package seed provides the bundled demo dataset the application boots
// from. There is no persistence: every start resets the store to this
// data.
package seed

import (
	"time"

	"github.com/nhle/maildesk/internal/model"
)

// DefaultUserIndex is the roster index of the user the session starts as.
const DefaultUserIndex = 0

// Users returns the demo roster in creation order.
func Users() []model.User {
	return []model.User{
		{
			ID:     "u1",
			Name:   "Jean Dupont",
			Email:  "jean.dupont@interac.local",
			Role:   model.RoleUser,
			Avatar: "https://picsum.photos/seed/u1/200/200",
		},
		{
			ID:     "u2",
			Name:   "Sophie Martin",
			Email:  "sophie.martin@interac.local",
			Role:   model.RoleAdmin,
			Avatar: "https://picsum.photos/seed/u2/200/200",
		},
		{
			ID:        "u3",
			Name:      "Interac Security",
			Email:     "security@interac.local",
			Role:      model.RoleAdmin,
			Avatar:    "https://picsum.photos/seed/u3/200/200",
			Certified: true,
		},
		{
			ID:     "u4",
			Name:   "Marketing Team",
			Email:  "marketing@interac.local",
			Role:   model.RoleUser,
			Avatar: "https://picsum.photos/seed/u4/200/200",
		},
	}
}

// Emails returns the initial mailbox content, with timestamps computed
// relative to now so the demo always opens with fresh-looking mail.
func Emails(now time.Time) []model.Email {
	users := Users()
	jean, sophie, security, marketing := users[0], users[1], users[2], users[3]

	return []model.Email{
		{
			ID:       "e1",
			ThreadID: "t1",
			From:     sophie,
			To:       []model.User{jean},
			Subject:  "Mise à jour du projet Alpha",
			Body: "<p>Bonjour Jean,</p><p>Peux-tu me faire un retour sur les " +
				"dernières maquettes ?</p><p>Cordialement,<br>Sophie</p>",
			Timestamp: now.Add(-2 * time.Hour),
			Read:      false,
			Starred:   true,
			Folder:    model.FolderInbox,
		},
		{
			ID:        "e2",
			ThreadID:  "t1",
			From:      jean,
			To:        []model.User{sophie},
			Subject:   "Mise à jour du projet Alpha",
			Body:      "<p>Salut Sophie,</p><p>C'est noté, je regarde ça avant midi.</p>",
			Timestamp: now.Add(-1 * time.Hour),
			Read:      true,
			Folder:    model.FolderSent,
		},
		{
			ID:       "e3",
			ThreadID: "t2",
			From:     security,
			To:       []model.User{jean},
			Subject:  "Alerte Phishing - Important",
			Body: "<p>Attention à tous,</p><p>Nous avons détecté une vague de " +
				"mails frauduleux.</p>",
			Timestamp: now.Add(-24 * time.Hour),
			Read:      true,
			Folder:    model.FolderInbox,
		},
		{
			ID:        "e4",
			ThreadID:  "t3",
			From:      marketing,
			To:        []model.User{jean},
			Subject:   "Newsletter Interne - Juin",
			Body:      "<p>Découvrez les nouveautés du mois !</p>",
			Timestamp: now.Add(-72 * time.Hour),
			Read:      true,
			Folder:    model.FolderSpam,
		},
	}
}
