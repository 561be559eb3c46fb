package helpers

import (
	"runtime"
	"strings"
)

// FuncName returns the short name of the calling function, used as error context
func FuncName() string {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return "?"
	}

	name := runtime.FuncForPC(pc).Name()
	// "choice-app/models.ChoiceModel.Create" -> "models.ChoiceModel.Create"
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
