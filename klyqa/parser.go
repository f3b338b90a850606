package klyqa

import (
	"encoding/json"
	"strings"

	"github.com/jessevdk/go-flags"
)

const (
	// CommandSet describes "set" sub-command.
	CommandSet = "set"
)

// FormatUID normalizes device unit ID.
func FormatUID(text string) string {
	return strings.NewReplacer("-", "", ":", "", " ", "").Replace(strings.ToLower(text))
}

// Arguments of the "set" sub-command.
type setArgs struct {
	Cleaning    string `long:"cleaning" choice:"on" choice:"off" description:"Start or stop cleaning"`
	WorkingMode string `long:"workingmode" description:"Working mode"`
	Beeping     string `long:"beeping" choice:"on" choice:"off" description:"Locate the device"`
	Suction     string `long:"suction" description:"Suction strength"`
}

// Allowed values of the "set" options, which are shared with entities.
var setChoices = map[string][]string{
	"workingmode": WorkingModes,
	"suction":     SuctionStrengths,
}

// Top level arguments.
type commandLine struct {
	Local         bool   `long:"local" description:"Send through the local bridge"`
	Cloud         bool   `long:"cloud" description:"Send through the cloud"`
	DeviceUnitIDs string `long:"device_unitids" description:"Comma separated device unit IDs"`
	Request       bool   `long:"request" description:"Request device status"`
	Power         string `long:"power" choice:"on" choice:"off" description:"Turn device on or off"`

	Set setArgs `command:"set" description:"Change device settings"`
}

// Request describes parsed command.
type Request struct {
	Local         bool
	DeviceUnitIDs []string
	Request       bool
	Power         string
	Command       string
	Cleaning      string
	WorkingMode   string
	Beeping       string
	Suction       string
}

// Payload builds message sent to the device.
func (r *Request) Payload() ([]byte, error) {
	msg := map[string]string{}
	for k, v := range map[string]string{
		"power":       r.Power,
		"cleaning":    r.Cleaning,
		"workingmode": r.WorkingMode,
		"beeping":     r.Beeping,
		"suction":     r.Suction,
	} {
		if v != "" {
			msg[k] = v
		}
	}

	if len(msg) > 0 {
		msg["type"] = CommandSet
	} else {
		msg["type"] = "request"
	}

	return json.Marshal(msg)
}

// IParser defines commands grammar.
type IParser interface {
	Parse(tokens []string) (*Request, error)
}

// Grammar implementation.
type parser struct {
}

// NewParser constructs commands grammar.
func NewParser() IParser {
	return &parser{}
}

// Parse validates tokens and builds a request.
func (p *parser) Parse(tokens []string) (*Request, error) {
	cl := &commandLine{}
	fp := flags.NewParser(cl, flags.PassDoubleDash)
	fp.SubcommandsOptional = true
	applyChoices(fp)

	rest, err := fp.ParseArgs(tokens)
	if err != nil {
		return nil, &ErrInvalidCommand{Reason: err.Error()}
	}

	if len(rest) > 0 {
		return nil, &ErrInvalidCommand{Reason: "unexpected arguments: " + strings.Join(rest, " ")}
	}

	req := &Request{
		Local:         cl.Local,
		DeviceUnitIDs: make([]string, 0),
		Request:       cl.Request,
		Power:         cl.Power,
	}

	for _, v := range strings.Split(cl.DeviceUnitIDs, ",") {
		if uid := FormatUID(v); uid != "" {
			req.DeviceUnitIDs = append(req.DeviceUnitIDs, uid)
		}
	}

	if 0 == len(req.DeviceUnitIDs) {
		return nil, &ErrInvalidCommand{Reason: "no target devices"}
	}

	if cl.Local && cl.Cloud {
		return nil, &ErrInvalidCommand{Reason: "local and cloud are mutually exclusive"}
	}

	if fp.Active != nil && fp.Active.Name == CommandSet {
		req.Command = CommandSet
		req.Cleaning = cl.Set.Cleaning
		req.WorkingMode = cl.Set.WorkingMode
		req.Beeping = cl.Set.Beeping
		req.Suction = cl.Set.Suction

		if req.Cleaning == "" && req.WorkingMode == "" && req.Beeping == "" && req.Suction == "" {
			return nil, &ErrInvalidCommand{Reason: "nothing to set"}
		}
	} else if !req.Request && req.Power == "" {
		return nil, &ErrInvalidCommand{Reason: "empty command"}
	}

	return req, nil
}

// Restricts "set" options to the known device values.
func applyChoices(fp *flags.Parser) {
	set := fp.Find(CommandSet)
	if nil == set {
		return
	}

	for name, choices := range setChoices {
		if opt := set.FindOptionByLongName(name); opt != nil {
			opt.Choices = choices
		}
	}
}
