package helpers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/savaki/jq"
)

// IPayloadParser describes payload expressions compiler.
type IPayloadParser interface {
	Compile(expression string) (IPayloadExpression, error)
}

// IPayloadExpression describes single pre-compiled expression.
// Raw payload is available inside expression as "payload" variable.
type IPayloadExpression interface {
	Evaluate(payload []byte) (interface{}, error)
	Extract(payload []byte) ([]byte, error)
}

// Parser implementation.
type parser struct {
	functions map[string]govaluate.ExpressionFunction
}

// Compiled expression.
type payloadExpression struct {
	expression *govaluate.EvaluableExpression
}

// NewParser constructs a new payload parser.
func NewParser() IPayloadParser {
	return &parser{
		functions: map[string]govaluate.ExpressionFunction{
			"jq":  jqParse,
			"num": float64Convert,
			"str": strConvert,
		},
	}
}

// Compile tries to pre-compile expression.
func (p *parser) Compile(expression string) (IPayloadExpression, error) {
	exp, err := govaluate.NewEvaluableExpressionWithFunctions(expression, p.functions)
	if err != nil {
		return nil, err
	}

	return &payloadExpression{
		expression: exp,
	}, nil
}

// Evaluate runs expression against received payload.
func (p *payloadExpression) Evaluate(payload []byte) (interface{}, error) {
	return p.expression.Evaluate(map[string]interface{}{"payload": string(payload)})
}

// Extract runs expression and expects string result,
// which is returned as a new payload.
func (p *payloadExpression) Extract(payload []byte) ([]byte, error) {
	res, err := p.Evaluate(payload)
	if err != nil {
		return nil, err
	}

	s, ok := res.(string)
	if !ok {
		return nil, &ErrNotString{}
	}

	return []byte(s), nil
}

// If only one param is supplied, returns un-marshaled json object.
// If two params are supplied, regular JQ syntax is used.
func jqParse(arguments ...interface{}) (interface{}, error) {
	if 0 == len(arguments) || len(arguments) > 2 {
		return nil, &ErrArgumentsMismatch{Count: len(arguments)}
	}

	arg1, ok := arguments[0].(string)
	if !ok {
		return nil, &ErrWrongArgument{Message: "first argument is not a string"}
	}

	if 1 == len(arguments) {
		data := make(map[string]interface{})
		err := json.Unmarshal([]byte(arg1), &data)
		if err != nil {
			return nil, err
		}

		return data, nil
	}

	arg2, ok := arguments[1].(string)
	if !ok {
		return nil, &ErrWrongArgument{Message: "second argument is not a string"}
	}

	op, err := jq.Parse(arg2)
	if err != nil {
		return nil, &ErrJqSyntax{Message: "failed to parse jq syntax"}
	}

	val, err := op.Apply([]byte(arg1))
	if err != nil {
		return nil, &ErrJqSyntax{Message: "failed to apply jq"}
	}

	return strings.Trim(string(val), "\""), nil
}

// Converts input param into float64.
func float64Convert(arguments ...interface{}) (interface{}, error) {
	if 1 != len(arguments) {
		return nil, &ErrArgumentsMismatch{Count: len(arguments)}
	}

	switch v := arguments[0].(type) {
	case string:
		return strconv.ParseFloat(v, 64)
	case float64:
		return v, nil
	}

	return nil, &ErrWrongArgument{Message: "not compatible with float type"}
}

// Converts input param into string.
func strConvert(arguments ...interface{}) (interface{}, error) {
	if 1 != len(arguments) {
		return nil, &ErrArgumentsMismatch{Count: len(arguments)}
	}

	a, ok := arguments[0].(string)
	if !ok {
		return fmt.Sprintf("%v", arguments[0]), nil
	}

	return a, nil
}
