package ast

import "fmt"

type Location struct {
	filePath string
	line     uint32
	column   uint32
}

func NewLocation(filePath string, line uint32, column uint32) Location {
	return Location{
		filePath: filePath,
		line:     line,
		column:   column,
	}
}

// Generated marks nodes introduced by a transformation rather than read from a file.
func Generated(reason string) Location {
	return Location{filePath: "<" + reason + ">"}
}

func (loc Location) EqualsTo(other Location) bool {
	return loc.filePath == other.filePath && loc.line == other.line && loc.column == other.column
}

func (loc Location) IsEmpty() bool {
	return loc.filePath == ""
}

func (loc Location) IsGenerated() bool {
	return len(loc.filePath) > 1 && loc.filePath[0] == '<'
}

func (loc Location) CursorString() string {
	if loc.IsEmpty() {
		return ""
	}
	if loc.line == 0 {
		return loc.filePath
	}
	return fmt.Sprintf("%s:%d:%d", loc.filePath, loc.line, loc.column)
}

func (loc Location) GetLineAndColumn() (line, column int) {
	return int(loc.line), int(loc.column)
}

func (loc Location) FilePath() string {
	return loc.filePath
}

func (loc Location) GetLocation() Location {
	return loc
}
