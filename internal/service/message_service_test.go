package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/testutil"
)

func texts(messages []dto.DirectMessage) []string {
	out := make([]string, 0, len(messages))
	for _, message := range messages {
		out = append(out, message.Text)
	}
	return out
}

func TestMessagesFiltersAndOrdering(t *testing.T) {
	e := newEngine(t)
	recipient := e.fx.User("recipient")
	sender := e.fx.User("sender")
	ghost := e.fx.User("ghost")
	e.fx.DB.Model(&ghost).Update("deleted", true)

	send := func(from models.User, to models.User, small, full string, created time.Time, mutate func(*models.Message)) {
		message := models.Message{SenderID: from.ID, RecipientID: to.ID, Subject: "Hello", SmallMessage: small, FullMessage: full, CreatedAt: created}
		if mutate != nil {
			mutate(&message)
		}
		e.fx.Create(&message)
	}

	send(sender, recipient, "newest", "", at(-time.Hour), nil)
	send(sender, recipient, "", "<p>only <i>full</i> text</p>", at(-2*time.Hour), func(m *models.Message) { m.Read = true })
	send(sender, recipient, "notification", "", at(-10*time.Minute), func(m *models.Message) { m.Notification = true })
	send(sender, recipient, "with context", "", at(-20*time.Minute), func(m *models.Message) { m.ContextURL = testutil.Ptr("/mod/forum/view.php?id=1") })
	send(sender, recipient, "deleted", "", at(-30*time.Minute), func(m *models.Message) { m.DeletedByRecipient = true })
	send(ghost, recipient, "from ghost", "", at(-40*time.Minute), nil)
	send(sender, sender, "to someone else", "", at(-50*time.Minute), nil)
	send(sender, recipient, "too old", "", at(-20*7*24*time.Hour), nil)

	svc := e.messageService()
	messages, err := svc.Recent(context.Background(), recipient, 10, time.Time{})
	require.NoError(t, err)
	require.Equal(t, []string{"newest", "only full text"}, texts(messages))

	require.True(t, messages[0].Unread)
	require.False(t, messages[1].Unread)
	require.Equal(t, sender.ID, messages[0].SenderID)
	require.Equal(t, "sender Tester", messages[0].SenderName)

	messages, err = svc.Recent(context.Background(), recipient, 1, time.Time{})
	require.NoError(t, err)
	require.Equal(t, []string{"newest"}, texts(messages))

	messages, err = svc.Recent(context.Background(), recipient, 10, at(-90*time.Minute))
	require.NoError(t, err)
	require.Equal(t, []string{"newest"}, texts(messages))
}

func TestMessagesUnknownUser(t *testing.T) {
	e := newEngine(t)
	messages, err := e.messageService().Recent(context.Background(), "404", 5, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)

	_, err = e.messageService().Recent(context.Background(), "not-a-number", 5, time.Time{})
	require.Error(t, err)
}
