package ty

import (
	"fmt"
	"strings"

	"zinc-compiler/internal/pkg/common"
)

// Mangle names the instantiation of a function for the given argument types.
// Distinct argument types always produce distinct names.
func Mangle(name string, args []Type) string {
	return fmt.Sprintf("%s<%s>", name, common.Join(args, ", "))
}

// IsMangled reports whether name was produced by Mangle.
func IsMangled(name string) bool {
	return strings.HasSuffix(name, ">") && strings.Contains(name, "<") && !strings.HasPrefix(name, "<")
}

// Unmangle returns the original name of a mangled function name.
func Unmangle(name string) string {
	if !IsMangled(name) {
		return name
	}
	return name[:strings.IndexByte(name, '<')]
}
