package dialogue

import "fmt"

// Prompts holds every line Jenny can say. Fields containing %s are format
// strings; see the accessor methods for their arguments.
type Prompts struct {
	Greeting     string
	AskName      string
	AskContact   string // name
	AskDatetime  string
	Unrecognized string
	Confirmed    string // name, slot
	ConfirmedSMS string // name, slot
	SlotFull     string
	TryAgain     string
	Repeat       map[Stage]string
	RepeatAny    string
}

// DefaultPrompts returns the poa beauty parlor script.
func DefaultPrompts() Prompts {
	return Prompts{
		Greeting:     "Jambo! Habari yako? This is Jenny, your poa beauty parlor reservation assistant. \nKaribu sana! Sema 'book' au 1 kuweka slot.",
		AskName:      "Poa! Sema jina lako kamili.",
		AskContact:   "Sawa %s! Ni namba yako au email for confirmation?",
		AskDatetime:  "Poa! Sasa, slot gani unataka? Kama tomorrow at 3 PM au kesho saa tisa.",
		Unrecognized: "Sorry, sielewi. Sema 'book' kuendelea.",
		Confirmed:    "Asante %s! Slot yako %s imebooked. Confirmation imekufikia kwa SMS. Kwaheri!",
		ConfirmedSMS: "Asante %s! Slot yako %s imebooked. Karibu! ~Jenny",
		SlotFull:     "Pole sana, slot hiyo imejaa. Jaribu nyingine. Piga tena!",
		TryAgain:     "Pole, kuna tatizo kidogo. Jaribu tena baada ya muda mfupi.",
		Repeat: map[Stage]string{
			StageName:     "Pole, sielewi. Sema jina lako kamili tena.",
			StageContact:  "Pole, toa namba au email sahihi tena.",
			StageDatetime: "Pole, eleza wakati vizuri tena. Kama tomorrow at 3 PM.",
		},
		RepeatAny: "Pole, sema tena.",
	}
}

func (p Prompts) ContactPrompt(name string) string {
	return fmt.Sprintf(p.AskContact, name)
}

func (p Prompts) ConfirmationPrompt(name, slot string) string {
	return fmt.Sprintf(p.Confirmed, name, slot)
}

func (p Prompts) ConfirmationSMS(name, slot string) string {
	return fmt.Sprintf(p.ConfirmedSMS, name, slot)
}

// RepeatPrompt is the fixed re-ask for a stage.
func (p Prompts) RepeatPrompt(stage Stage) string {
	if msg, ok := p.Repeat[stage]; ok {
		return msg
	}
	return p.RepeatAny
}
