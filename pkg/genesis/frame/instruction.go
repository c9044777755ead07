package frame

import (
	"strconv"
	"strings"
)

// Param is one positional parameter of an Instruction.
// The zero value is an absent parameter, which is encoded as an empty field.
type Param struct {
	Value   string
	Present bool
}

// Absent is the parameter that is skipped by the device but keeps its slot.
var Absent = Param{}

// Int creates an integer parameter.
func Int(v int) Param {
	return Param{Value: strconv.Itoa(v), Present: true}
}

// Str creates a string parameter.
func Str(v string) Param {
	return Param{Value: v, Present: true}
}

// String implements fmt.Stringer.
func (p Param) String() string {
	return p.Value
}

// Instruction is a unit of work addressed to a single device.
type Instruction struct {
	Device   string
	Mnemonic string
	Params   []Param
}

// New creates an Instruction with integer parameters.
func New(device, mnemonic string, params ...int) Instruction {
	ins := Instruction{Device: device, Mnemonic: mnemonic}
	for _, p := range params {
		ins.Params = append(ins.Params, Int(p))
	}
	return ins
}

// Raw creates an Instruction carrying a complete command string, e.g. the
// diluter command "S9OP315R".
func Raw(device, command string) Instruction {
	return Instruction{Device: device, Mnemonic: command}
}

// Body returns the mnemonic followed by the comma-joined parameters.
func (i Instruction) Body() string {
	if len(i.Params) == 0 {
		return i.Mnemonic
	}
	fields := make([]string, len(i.Params))
	for n, p := range i.Params {
		if p.Present {
			fields[n] = p.Value
		}
	}
	return i.Mnemonic + strings.Join(fields, ",")
}

// String implements fmt.Stringer.
func (i Instruction) String() string {
	return i.Device + i.Body()
}

// parseBody splits a request body into mnemonic and parameters.
// The mnemonic is the leading run of ASCII letters.
func parseBody(body string) (string, []Param) {
	n := 0
	for n < len(body) && isLetter(body[n]) {
		n++
	}
	mnemonic, rest := body[:n], body[n:]
	if rest == "" {
		return mnemonic, nil
	}
	fields := strings.Split(rest, ",")
	params := make([]Param, len(fields))
	for i, f := range fields {
		if f != "" {
			params[i] = Str(f)
		}
	}
	return mnemonic, params
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
