package domain

import (
	"fmt"
	"strings"
)

// CreateDisposition governs whether a missing table may be created.
type CreateDisposition string

const (
	CreateIfNeeded CreateDisposition = "CREATE_IF_NEEDED"
	CreateNever    CreateDisposition = "CREATE_NEVER"
)

// WriteMode governs what happens to rows already in the table.
type WriteMode string

const (
	WriteAppend    WriteMode = "APPEND"
	WriteTruncate  WriteMode = "TRUNCATE"
	WriteEmptyOnly WriteMode = "EMPTY_ONLY"
)

type WriteDisposition struct {
	Create CreateDisposition
	Write  WriteMode
}

// DefaultDisposition is the create-and-append policy.
var DefaultDisposition = WriteDisposition{Create: CreateIfNeeded, Write: WriteAppend}

func ParseCreateDisposition(s string) (CreateDisposition, error) {
	switch CreateDisposition(strings.ToUpper(strings.TrimSpace(s))) {
	case "", CreateIfNeeded:
		return CreateIfNeeded, nil
	case CreateNever:
		return CreateNever, nil
	default:
		return "", fmt.Errorf("unknown create disposition %q", s)
	}
}

// ParseWriteMode also accepts the WRITE_ prefixed names (WRITE_APPEND, WRITE_TRUNCATE, WRITE_EMPTY).
func ParseWriteMode(s string) (WriteMode, error) {
	v := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "WRITE_")
	switch v {
	case "", string(WriteAppend):
		return WriteAppend, nil
	case string(WriteTruncate):
		return WriteTruncate, nil
	case string(WriteEmptyOnly), "EMPTY":
		return WriteEmptyOnly, nil
	default:
		return "", fmt.Errorf("unknown write disposition %q", s)
	}
}

func ParseDisposition(create, write string) (WriteDisposition, error) {
	c, err := ParseCreateDisposition(create)
	if err != nil {
		return WriteDisposition{}, err
	}
	w, err := ParseWriteMode(write)
	if err != nil {
		return WriteDisposition{}, err
	}
	return WriteDisposition{Create: c, Write: w}, nil
}

func (d WriteDisposition) String() string {
	return string(d.Create) + "/" + string(d.Write)
}
