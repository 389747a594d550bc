package service

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/chat_shop/services/order/internal/models"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
)

const (
	RoleAdmin     = "ADMIN"
	RoleAmir      = "AMIR"
	RoleViceAmir  = "VICEAMIR"
	RoleAmira     = "AMIRA"
	RoleViceAmira = "VICEAMIRA"
)

// StaffRoles lists every role allowed into the admin API.
var StaffRoles = []string{RoleAdmin, RoleAmir, RoleViceAmir, RoleAmira, RoleViceAmira}

// OrderScope is the slice of orders a staff role may see and act on.
// A zero Gender means every order.
type OrderScope struct {
	Gender models.Gender
}

func ScopeFor(role string) (OrderScope, error) {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleAdmin:
		return OrderScope{}, nil
	case RoleAmir, RoleViceAmir:
		return OrderScope{Gender: models.GenderMale}, nil
	case RoleAmira, RoleViceAmira:
		return OrderScope{Gender: models.GenderFemale}, nil
	default:
		return OrderScope{}, fmt.Errorf("%w: role %q has no order scope", ErrForbidden, role)
	}
}

func (s OrderScope) Allows(o *models.Order) bool {
	return s.Gender == "" || o.BuyerGender == s.Gender
}

func (s OrderScope) filter(f repo.OrderFilter) repo.OrderFilter {
	f.Gender = s.Gender
	return f
}
