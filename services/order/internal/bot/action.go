package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ActionKind is the closed set of inline button actions the bot understands.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionGenderMale
	ActionGenderFemale
	ActionProductMethod
	ActionProductBrowse
	ActionProductNext
	ActionProductPrev
	ActionProductRefresh
	ActionProductDetail
	ActionAddCart
	ActionCartCheckout
	ActionCartClear
	ActionCartRemoveItem
	ActionDeleteConfirm
	ActionDeleteCancel
)

type paramKind int

const (
	paramNone paramKind = iota
	paramProduct
	paramIndex
	paramMethod
)

var actionTags = map[ActionKind]struct {
	tag   string
	param paramKind
}{
	ActionGenderMale:     {"GEN_M", paramNone},
	ActionGenderFemale:   {"GEN_F", paramNone},
	ActionProductMethod:  {"PRODUCT_METHOD", paramMethod},
	ActionProductBrowse:  {"PRODUCT_BROWSE", paramIndex},
	ActionProductNext:    {"PRODUCT_NEXT", paramNone},
	ActionProductPrev:    {"PRODUCT_PREV", paramNone},
	ActionProductRefresh: {"PRODUCT_REFRESH", paramNone},
	ActionProductDetail:  {"PRODUCT_DETAIL", paramProduct},
	ActionAddCart:        {"ADD_CART", paramProduct},
	ActionCartCheckout:   {"CART_CHECKOUT", paramNone},
	ActionCartClear:      {"CART_CLEAR", paramNone},
	ActionCartRemoveItem: {"CART_REMOVE_ITEM", paramProduct},
	ActionDeleteConfirm:  {"DELETE_CONFIRM", paramNone},
	ActionDeleteCancel:   {"DELETE_CANCEL", paramNone},
}

var kindByTag = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(actionTags)+2)
	for k, v := range actionTags {
		m[v.tag] = k
	}
	// older keyboards
	m["CHECKOUT"] = ActionCartCheckout
	m["CLEAR_CART"] = ActionCartClear
	return m
}()

type BrowseMethod string

const (
	MethodAll    BrowseMethod = "all"
	MethodBrowse BrowseMethod = "browse"
)

// Action is a decoded callback payload with its typed parameter.
type Action struct {
	Kind      ActionKind
	ProductID uuid.UUID
	Index     int
	Method    BrowseMethod
}

var ErrBadAction = errors.New("malformed callback action")

func (k ActionKind) String() string {
	if v, ok := actionTags[k]; ok {
		return v.tag
	}
	return "UNKNOWN"
}

// ParseAction decodes "TAG|param|..." into an Action. Trailing parameters the
// action does not use are ignored.
func ParseAction(data string) (Action, error) {
	parts := strings.Split(data, "|")
	kind, ok := kindByTag[parts[0]]
	if !ok {
		return Action{}, fmt.Errorf("%w: unknown tag %q", ErrBadAction, parts[0])
	}
	a := Action{Kind: kind}

	param := ""
	if len(parts) > 1 {
		param = parts[1]
	}

	switch actionTags[kind].param {
	case paramProduct:
		id, err := uuid.Parse(param)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %s needs a product id", ErrBadAction, parts[0])
		}
		a.ProductID = id
	case paramIndex:
		if param == "" {
			break
		}
		i, err := strconv.Atoi(param)
		if err != nil || i < 0 {
			return Action{}, fmt.Errorf("%w: %s needs a non-negative index", ErrBadAction, parts[0])
		}
		a.Index = i
	case paramMethod:
		switch m := BrowseMethod(param); m {
		case MethodAll, MethodBrowse:
			a.Method = m
		default:
			return Action{}, fmt.Errorf("%w: unknown browse method %q", ErrBadAction, param)
		}
	}
	return a, nil
}

func (a Action) Encode() string {
	spec, ok := actionTags[a.Kind]
	if !ok {
		return ""
	}
	switch spec.param {
	case paramProduct:
		return spec.tag + "|" + a.ProductID.String()
	case paramIndex:
		return spec.tag + "|" + strconv.Itoa(a.Index)
	case paramMethod:
		return spec.tag + "|" + string(a.Method)
	default:
		return spec.tag
	}
}
