package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	if sender := NewSendGridSender(SendGridConfig{FromEmail: "jenny@example.com"}, nil); sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "jenny@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Jenny" {
		t.Errorf("expected default from name 'Jenny', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send(t *testing.T) {
	bodies := make(chan string, 1)
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies <- string(raw)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
	}))
	defer srv.Close()

	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "jenny@example.com"}, logging.Discard())
	sender.client.BaseURL = srv.URL

	err := sender.Send(context.Background(), EmailMessage{
		BookingID: "b-42", To: "asha@example.com", ToName: "Asha", Subject: "Booked", Body: "Asante Asha! <3",
	})
	require.NoError(t, err)
	body := <-bodies
	assert.Contains(t, body, "asha@example.com")
	assert.Contains(t, body, "Asante Asha!")
	assert.Contains(t, body, `"booking_id":"b-42"`)
	assert.Contains(t, body, confirmationCategory)
	assert.Contains(t, body, "text/html")

	status = http.StatusBadRequest
	err = sender.Send(context.Background(), EmailMessage{To: "asha@example.com", Subject: "Booked", Body: "x"})
	<-bodies
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.co"}); err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	if err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "a@b.co", Body: "Asante"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

func TestEmailSenders_RejectIncompleteMessages(t *testing.T) {
	fake := &fakeSES{}
	senders := map[string]EmailSender{
		"stub": NewStubEmailSender(logging.Discard()),
		"ses":  NewSESSender(fake, SESConfig{FromEmail: "jenny@example.com"}, logging.Discard()),
	}
	for name, sender := range senders {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, sender.Send(context.Background(), EmailMessage{Body: "Asante"}))
			assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "a@b.co", Body: "  "}))
		})
	}
	assert.Nil(t, fake.input)
}

func TestConfirmationHTML(t *testing.T) {
	assert.Equal(t, "<p>Asante Asha!</p><p>Karibu &lt;3 ~Jenny</p>", confirmationHTML("Asante Asha!\n\nKaribu <3 ~Jenny\n"))
	assert.Equal(t, "", confirmationHTML("   "))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "jenny@example.com"}, logging.Discard())

	require.NoError(t, sender.Send(context.Background(), EmailMessage{BookingID: "b-42", To: "asha@example.com", Subject: "Booked", Body: "Asante"}))
	require.NotNil(t, fake.input)
	assert.Equal(t, "Jenny <jenny@example.com>", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"asha@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "Asante", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>Asante</p>", aws.ToString(fake.input.Content.Simple.Body.Html.Data))
	require.Len(t, fake.input.EmailTags, 1)
	assert.Equal(t, "booking_id", aws.ToString(fake.input.EmailTags[0].Name))
	assert.Equal(t, "b-42", aws.ToString(fake.input.EmailTags[0].Value))

	fake.err = errors.New("throttled")
	assert.Error(t, sender.Send(context.Background(), EmailMessage{To: "asha@example.com", Body: "x"}))
}

func TestNewSESSender_NilClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}
