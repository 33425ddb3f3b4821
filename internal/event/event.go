// Package event classifies AWS Lambda handler modules by the shape of
// their event access chains. The scan runs on the surface AST, returns
// a confidence-scored classification, and never touches the HIR; the
// driver consults it only on the check --events path.
package event

import (
	"fmt"
	"sort"
	"strings"

	"depyler/internal/pyast"
)

// Kind is the inferred event source of a handler module.
type Kind string

const (
	S3         Kind = "S3"
	SQS        Kind = "SQS"
	SNS        Kind = "SNS"
	DynamoDB   Kind = "DynamoDB"
	APIGateway Kind = "APIGateway"
	Unknown    Kind = "Unknown"
)

// Classification is the scan result for one module.
type Classification struct {
	Kind       Kind
	Confidence float64
	Evidence   []string
}

// specificKeys pin the event source on their own when they appear in an
// access chain rooted at the handler's event parameter.
var specificKeys = map[string]Kind{
	"s3":                    S3,
	"Sns":                   SNS,
	"dynamodb":              DynamoDB,
	"receiptHandle":         SQS,
	"messageAttributes":     SQS,
	"httpMethod":            APIGateway,
	"requestContext":        APIGateway,
	"pathParameters":        APIGateway,
	"queryStringParameters": APIGateway,
}

// corroboratingKeys nudge an already-plausible source upward.
var corroboratingKeys = map[string][]Kind{
	"Records":   {S3, SQS, SNS, DynamoDB},
	"bucket":    {S3},
	"object":    {S3},
	"Message":   {SNS},
	"TopicArn":  {SNS},
	"Keys":      {DynamoDB},
	"NewImage":  {DynamoDB},
	"OldImage":  {DynamoDB},
	"md5OfBody": {SQS},
	"body":      {SQS, APIGateway},
}

// eventSources recognizes literal eventSource comparison values.
var eventSources = map[string]Kind{
	"aws:s3":       S3,
	"aws:sqs":      SQS,
	"aws:sns":      SNS,
	"aws:dynamodb": DynamoDB,
}

const (
	specificScore     = 0.85
	sourceScore       = 0.90
	corroborateScore  = 0.05
	maxConfidence     = 0.95
	reportedThreshold = 0.5
)

// Classify scans a module for handler functions and scores the access
// patterns on their event parameters.
func Classify(module *pyast.Node) Classification {
	base := make(map[Kind]float64)
	extra := make(map[Kind]map[string]bool)
	evidence := make(map[Kind][]string)

	bump := func(k Kind, score float64, note string) {
		if score > base[k] {
			base[k] = score
		}
		evidence[k] = append(evidence[k], note)
	}
	corroborate := func(k Kind, key, note string) {
		if extra[k] == nil {
			extra[k] = make(map[string]bool)
		}
		if !extra[k][key] {
			extra[k][key] = true
			evidence[k] = append(evidence[k], note)
		}
	}

	for _, fn := range handlerFuncs(module) {
		param := eventParam(fn)
		if param == "" {
			continue
		}
		pyast.Walk(module, func(n *pyast.Node) bool {
			switch n.Type {
			case "Subscript":
				key, ok := subscriptKey(n)
				if !ok || !rootedAt(n, param) {
					return true
				}
				if k, hit := specificKeys[key]; hit {
					bump(k, specificScore, fmt.Sprintf("access chain key %q on %s", key, param))
				}
				for _, k := range corroboratingKeys[key] {
					corroborate(k, key, fmt.Sprintf("corroborating key %q", key))
				}
			case "Constant":
				c, err := n.Constant()
				if err == nil && c.Kind == pyast.ConstStr && strings.HasPrefix(c.Str, "aws:") {
					if k, hit := eventSources[c.Str]; hit {
						bump(k, sourceScore, fmt.Sprintf("eventSource literal %q", c.Str))
					}
				}
			}
			return true
		})
	}

	best, bestScore := Unknown, 0.0
	kinds := make([]Kind, 0, len(base))
	for k := range base {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		score := base[k] + corroborateScore*float64(len(extra[k]))
		if score > maxConfidence {
			score = maxConfidence
		}
		if score > bestScore {
			best, bestScore = k, score
		}
	}
	if bestScore < reportedThreshold {
		return Classification{Kind: Unknown}
	}
	return Classification{Kind: best, Confidence: bestScore, Evidence: evidence[best]}
}

// handlerFuncs returns the module-level functions that look like Lambda
// entry points: a parameter literally named event, or the conventional
// (event, context) pair.
func handlerFuncs(module *pyast.Node) []*pyast.Node {
	if module == nil {
		return nil
	}
	var out []*pyast.Node
	for _, item := range module.Body {
		if item.Type != "FunctionDef" && item.Type != "AsyncFunctionDef" {
			continue
		}
		if eventParam(item) != "" {
			out = append(out, item)
		}
	}
	return out
}

// eventParam picks the handler's event parameter name, or "".
func eventParam(fn *pyast.Node) string {
	args := fn.Arguments()
	if args == nil {
		return ""
	}
	list := args.ArgList()
	for _, a := range list {
		if a.Arg == "event" {
			return a.Arg
		}
	}
	if len(list) == 2 && list[1].Arg == "context" {
		return list[0].Arg
	}
	return ""
}

// subscriptKey returns the string key of a subscript, when constant.
func subscriptKey(n *pyast.Node) (string, bool) {
	if n.Slice == nil || n.Slice.Type != "Constant" {
		return "", false
	}
	c, err := n.Slice.Constant()
	if err != nil || c.Kind != pyast.ConstStr {
		return "", false
	}
	return c.Str, true
}

// rootedAt walks down the subscript chain and reports whether it
// bottoms out at a name reference to param.
func rootedAt(n *pyast.Node, param string) bool {
	cur := n
	for cur != nil && cur.Type == "Subscript" {
		cur = cur.ValueNode()
	}
	return cur != nil && cur.Type == "Name" && cur.ID == param
}
