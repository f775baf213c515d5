package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-fest/backend/internal/models"
)

func TestComposeApproval(t *testing.T) {
	msg, err := ComposeApproval("EventHub 2026", notice(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Registration Approved - EventHub 2026", msg.Subject)
	assert.Contains(t, msg.Text, "Hello Asha Verma,")
	assert.Contains(t, msg.Text, "Events Registered: PromptStorm, InsightCraft")
	assert.Contains(t, msg.Text, "Total Amount: Rs. 300")
	assert.Contains(t, msg.HTML, "MCGK20260212345678")
	assert.Contains(t, msg.HTML, "&copy; 2026 EventHub 2026")
}

func TestComposeApproval_EscapesHTML(t *testing.T) {
	n := notice()
	n.Name = `<script>alert("x")</script>`
	msg, err := ComposeApproval("EventHub 2026", n, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "<script>")
}

func TestComposeApproval_NoEventNames(t *testing.T) {
	msg, err := ComposeApproval("EventHub 2026", models.ApprovalNotice{Email: "a@example.com", Name: "A"}, time.Now())
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Multiple events")
}
