package analysis

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"okx-analysis/internal/model"
)

// Action selects which analysis Run performs.
type Action string

const (
	ActionKline  Action = "kline"
	ActionMA     Action = "ma"
	ActionRSI    Action = "rsi"
	ActionMACD   Action = "macd"
	ActionSignal Action = "signal"
)

// Actions lists every supported action.
var Actions = []Action{ActionKline, ActionMA, ActionRSI, ActionMACD, ActionSignal}

func (a Action) valid() bool {
	for _, x := range Actions {
		if a == x {
			return true
		}
	}
	return false
}

// Request is one analysis invocation. Zero-valued optional fields are
// filled from the default tags before validation.
type Request struct {
	Action Action `json:"action" validate:"required"`
	InstID string `json:"instId" default:"BTC-USDT" validate:"required,max=64"`
	Bar    string `json:"bar" default:"1H" validate:"oneof=1m 5m 15m 30m 1H 4H 1D"`
	Limit  int    `json:"limit" default:"100" validate:"gte=1,lte=300"`
}

var validate = validator.New()

// Normalize applies defaults, then checks the action and field constraints.
// Unknown actions are reported as ErrUnknownAction, everything else as
// ErrInvalidRequest.
func (r *Request) Normalize() error {
	if err := defaults.Set(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.Action != "" && !r.Action.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	return nil
}

// BarValue returns the validated timeframe.
func (r *Request) BarValue() model.Bar { return model.Bar(r.Bar) }

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
