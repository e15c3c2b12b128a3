package modules

import "fmt"

func arityError(name string, want, got int) error {
	return fmt.Errorf("%s() expects %d argument(s), got %d", name, want, got)
}

func typeError(name, want string, got interface{ TypeName() string }) error {
	return fmt.Errorf("%s() expects a %s argument, got %s", name, want, got.TypeName())
}
