package handlers

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/rickd5991-stack/jenny-bot/internal/dialogue"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const defaultSpeechTimeout = 60

// Stepper runs one dialogue turn.
type Stepper interface {
	Step(ctx context.Context, sessionID, callerPhone, utterance string) dialogue.Reply
}

// CallbackHandler adapts gateway callbacks (USSD and voice) to dialogue turns.
type CallbackHandler struct {
	engine        Stepper
	speechTimeout int
	logger        *logging.Logger
}

// NewCallbackHandler builds the handler. speechTimeout is the number of
// seconds the voice gateway listens for an answer.
func NewCallbackHandler(engine Stepper, speechTimeout int, logger *logging.Logger) *CallbackHandler {
	if engine == nil {
		panic("handlers: dialogue engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if speechTimeout <= 0 {
		speechTimeout = defaultSpeechTimeout
	}
	return &CallbackHandler{engine: engine, speechTimeout: speechTimeout, logger: logger}
}

type callbackRequest struct {
	SessionID   string
	CallerPhone string
	Text        string
	Voice       bool
}

func parseCallback(r *http.Request) (callbackRequest, bool) {
	if err := r.ParseForm(); err != nil {
		return callbackRequest{}, false
	}
	form := r.Form
	req := callbackRequest{
		SessionID:   strings.TrimSpace(form.Get("sessionId")),
		CallerPhone: firstNonEmpty(form.Get("phoneNumber"), form.Get("callerNumber")),
		Text:        firstNonEmpty(form.Get("text"), form.Get("dtmfDigits")),
		Voice:       form.Has("duration") || form.Get("isActive") == "1",
	}
	return req, req.SessionID != ""
}

// HandleUSSD answers POST /ussd/callback.
func (h *CallbackHandler) HandleUSSD(w http.ResponseWriter, r *http.Request) {
	req, ok := parseCallback(r)
	if !ok {
		http.Error(w, "sessionId required", http.StatusBadRequest)
		return
	}
	h.writeUSSD(w, h.step(r, req))
}

// HandleVoice answers POST /voice/callback.
func (h *CallbackHandler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	req, ok := parseCallback(r)
	if !ok {
		http.Error(w, "sessionId required", http.StatusBadRequest)
		return
	}
	h.writeVoice(w, h.step(r, req))
}

// HandleCallback serves the single legacy endpoint, framing the reply as
// voice when the gateway sent call fields and as USSD otherwise.
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	req, ok := parseCallback(r)
	if !ok {
		http.Error(w, "sessionId required", http.StatusBadRequest)
		return
	}
	reply := h.step(r, req)
	if req.Voice {
		h.writeVoice(w, reply)
		return
	}
	h.writeUSSD(w, reply)
}

func (h *CallbackHandler) step(r *http.Request, req callbackRequest) dialogue.Reply {
	reply := h.engine.Step(r.Context(), req.SessionID, req.CallerPhone, req.Text)
	if reply.Terminal {
		h.logger.Info("session finished", "session_id", req.SessionID, "outcome", reply.Outcome)
	}
	return reply
}

func (h *CallbackHandler) writeUSSD(w http.ResponseWriter, reply dialogue.Reply) {
	prefix := "CON "
	if reply.Terminal {
		prefix = "END "
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(prefix + reply.Text))
}

type voiceResponse struct {
	XMLName   xml.Name   `xml:"Response"`
	Say       voiceSay   `xml:"Say"`
	GetSpeech *getSpeech `xml:"GetSpeech,omitempty"`
}

type voiceSay struct {
	Voice string `xml:"voice,attr"`
	Text  string `xml:",chardata"`
}

type getSpeech struct {
	Timeout int `xml:"timeout,attr"`
}

func (h *CallbackHandler) writeVoice(w http.ResponseWriter, reply dialogue.Reply) {
	doc := voiceResponse{Say: voiceSay{Voice: "woman", Text: reply.Text}}
	if !reply.Terminal {
		doc.GetSpeech = &getSpeech{Timeout: h.speechTimeout}
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		h.logger.Error("failed to encode voice response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
