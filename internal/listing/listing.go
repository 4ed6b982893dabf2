// Package listing models the multi-turn "list a spot" form as a state machine.
//
// A listing walks AwaitingLabel -> AwaitingAddress -> AwaitingPrice and ends in
// Committed once a valid price is entered. Next is pure: it never touches
// storage. The caller persists the Draft carried by EffectCommit.
package listing

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/spot-booking/internal/apperrors"
)

// Prompts shown to the user for each step.
const (
	PromptLabel   = "Enter the spot number or label"
	PromptAddress = "Enter the spot address"
	PromptPrice   = "Enter the price per hour (whole number)"
)

// State is one step of the listing form. The concrete types below are the
// only implementations.
type State interface {
	// Prompt returns the question the user should answer next.
	Prompt() string
	isState()
}

// AwaitingLabel is the first step.
type AwaitingLabel struct{}

// AwaitingAddress holds the accepted label.
type AwaitingAddress struct {
	Label string
}

// AwaitingPrice holds the accepted label and address.
type AwaitingPrice struct {
	Label   string
	Address string
}

// Committed is terminal. The draft is ready to be persisted.
type Committed struct {
	Draft Draft
}

func (AwaitingLabel) Prompt() string   { return PromptLabel }
func (AwaitingAddress) Prompt() string { return PromptAddress }
func (AwaitingPrice) Prompt() string   { return PromptPrice }
func (Committed) Prompt() string       { return "" }

func (AwaitingLabel) isState()   {}
func (AwaitingAddress) isState() {}
func (AwaitingPrice) isState()   {}
func (Committed) isState()       {}

// Draft is a fully collected listing.
type Draft struct {
	Label        string `json:"label" validate:"required,max=64"`
	Address      string `json:"address" validate:"required,max=256"`
	PricePerHour int    `json:"price_per_hour" validate:"gt=0"`
}

// Input is one user message. Cancel wins over Text.
type Input struct {
	Text   string
	Cancel bool
}

// Text wraps a free-text answer.
func Text(s string) Input { return Input{Text: s} }

// Cancel aborts the form from any step.
func Cancel() Input { return Input{Cancel: true} }

// EffectKind tells the caller what to do after a transition.
type EffectKind int

const (
	// EffectPrompt asks the next question.
	EffectPrompt EffectKind = iota
	// EffectCommit asks the caller to persist Effect.Draft.
	EffectCommit
	// EffectCancelled ends the session without saving anything.
	EffectCancelled
)

func (k EffectKind) String() string {
	switch k {
	case EffectPrompt:
		return "prompt"
	case EffectCommit:
		return "commit"
	case EffectCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect is the side effect requested by a transition.
type Effect struct {
	Kind   EffectKind
	Prompt string
	Draft  *Draft
}

// ErrTerminal is returned when input arrives for a finished listing.
var ErrTerminal = errors.New("listing already finished")

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Start returns the initial state and its prompt.
func Start() (State, Effect) {
	s := AwaitingLabel{}
	return s, Effect{Kind: EffectPrompt, Prompt: s.Prompt()}
}

// Next applies in to s. On a validation failure it returns s unchanged, an
// EffectPrompt repeating the current question and an apperrors validation
// error. A cancelled form yields a nil state.
func Next(s State, in Input) (State, Effect, error) {
	if _, done := s.(Committed); done || s == nil {
		return s, Effect{}, ErrTerminal
	}
	if in.Cancel {
		return nil, Effect{Kind: EffectCancelled}, nil
	}

	text := strings.TrimSpace(in.Text)
	switch st := s.(type) {
	case AwaitingLabel:
		if err := checkField(text, "required,max=64", "label"); err != nil {
			return st, reprompt(st), err
		}
		next := AwaitingAddress{Label: text}
		return next, Effect{Kind: EffectPrompt, Prompt: next.Prompt()}, nil

	case AwaitingAddress:
		if err := checkField(text, "required,max=256", "address"); err != nil {
			return st, reprompt(st), err
		}
		next := AwaitingPrice{Label: st.Label, Address: text}
		return next, Effect{Kind: EffectPrompt, Prompt: next.Prompt()}, nil

	case AwaitingPrice:
		price, err := ParsePrice(text)
		if err != nil {
			return st, reprompt(st), err
		}
		draft := Draft{Label: st.Label, Address: st.Address, PricePerHour: price}
		if err := ValidateDraft(draft); err != nil {
			return st, reprompt(st), err
		}
		return Committed{Draft: draft}, Effect{Kind: EffectCommit, Draft: &draft}, nil

	default:
		return s, Effect{}, fmt.Errorf("unknown listing state %T", s)
	}
}

// ParsePrice accepts a positive whole number, optionally surrounded by spaces.
func ParsePrice(text string) (int, error) {
	price, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || price <= 0 {
		return 0, apperrors.Validation("price must be a positive whole number")
	}
	if price > math.MaxInt32 {
		return 0, apperrors.Validation("price is too large")
	}
	return price, nil
}

// ValidateDraft checks a draft against its field constraints.
func ValidateDraft(d Draft) error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.Validation(describe(verrs[0], verrs[0].Field()))
		}
		return apperrors.Validation(err.Error())
	}
	return nil
}

func checkField(value, tag, name string) error {
	if err := validate.Var(value, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.Validation(describe(verrs[0], name))
		}
		return apperrors.Validation(err.Error())
	}
	return nil
}

func describe(fe validator.FieldError, name string) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s cannot be empty", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func reprompt(s State) Effect {
	return Effect{Kind: EffectPrompt, Prompt: s.Prompt()}
}

// StateName returns a stable identifier for s, used on the wire.
func StateName(s State) string {
	switch s.(type) {
	case AwaitingLabel:
		return "awaiting_label"
	case AwaitingAddress:
		return "awaiting_address"
	case AwaitingPrice:
		return "awaiting_price"
	case Committed:
		return "committed"
	case nil:
		return "cancelled"
	default:
		return "unknown"
	}
}
