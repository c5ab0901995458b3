package enums

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownContactMethod = errors.New("unknown contact method")

type ContactMethod string

const (
	ContactMethodPhone ContactMethod = "phone"
	ContactMethodEmail ContactMethod = "email"
	ContactMethodBoth  ContactMethod = "both"
	ContactMethodNone  ContactMethod = "none"
)

var contactMethodByTag = map[string]ContactMethod{
	"phone": ContactMethodPhone,
	"email": ContactMethodEmail,
	"both":  ContactMethodBoth,
	"none":  ContactMethodNone,
}

func ParseContactMethod(raw string) (ContactMethod, error) {
	method, ok := contactMethodByTag[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownContactMethod, raw)
	}
	return method, nil
}
