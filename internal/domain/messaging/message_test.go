package messaging_test

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/messaging"
	"hirely/internal/domain/shared/fault"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNewUserMessage(t *testing.T) {
	type testCase struct {
		name    string
		sender  string
		text    string
		wantErr error
	}

	tests := []testCase{
		{name: "valid", sender: "hirer", text: "  see you at noon "},
		{name: "blank text", sender: "hirer", text: "   ", wantErr: fault.ErrValidation},
		{name: "too long", sender: "hirer", text: strings.Repeat("a", 4001), wantErr: fault.ErrValidation},
		{name: "missing sender", sender: "", text: "hi", wantErr: fault.ErrValidation},
		{name: "reserved sender", sender: messaging.SystemSender, text: "hi", wantErr: fault.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := messaging.NewUserMessage("m1", "b1", tt.sender, tt.text, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "see you at noon", msg.Text)
			assert.Equal(t, messaging.TypeUser, msg.Type)
		})
	}
}

func TestLessOrdersByTimeThenID(t *testing.T) {
	later := messaging.NewSystemMessage("a", "b1", "later", now.Add(time.Second))
	second := messaging.NewSystemMessage("c", "b1", "second", now)
	first := messaging.NewSystemMessage("b", "b1", "first", now)

	thread := []*messaging.Message{later, second, first}
	sort.SliceStable(thread, func(i, j int) bool { return messaging.Less(thread[i], thread[j]) })

	assert.Equal(t, []string{"first", "second", "later"}, []string{thread[0].Text, thread[1].Text, thread[2].Text})
	assert.Equal(t, messaging.SystemSender, later.SenderID)
}
