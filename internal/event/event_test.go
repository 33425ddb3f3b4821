package event_test

import (
	"strings"
	"testing"

	"depyler/internal/event"
	"depyler/internal/pyast"
)

func parse(t *testing.T, src string) *pyast.Node {
	t.Helper()
	root, err := pyast.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return root
}

func TestS3AccessChainClassified(t *testing.T) {
	root := parse(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"handler",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"event"},{"_type":"arg","arg":"context"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Assign",
	     "targets":[{"_type":"Name","id":"bucket"}],
	     "value":{"_type":"Subscript",
	       "value":{"_type":"Subscript",
	         "value":{"_type":"Subscript",
	           "value":{"_type":"Subscript",
	             "value":{"_type":"Subscript",
	               "value":{"_type":"Name","id":"event"},
	               "slice":{"_type":"Constant","value":"Records"}},
	             "slice":{"_type":"Constant","value":0}},
	           "slice":{"_type":"Constant","value":"s3"}},
	         "slice":{"_type":"Constant","value":"bucket"}},
	       "slice":{"_type":"Constant","value":"name"}}}]}]}`)

	got := event.Classify(root)
	if got.Kind != event.S3 {
		t.Fatalf("Kind = %s, want S3 (evidence: %v)", got.Kind, got.Evidence)
	}
	if got.Confidence <= 0.8 {
		t.Errorf("Confidence = %.2f, want > 0.8", got.Confidence)
	}
	found := false
	for _, e := range got.Evidence {
		if strings.Contains(e, `"s3"`) {
			found = true
		}
	}
	if !found {
		t.Errorf("evidence %v does not mention the s3 key", got.Evidence)
	}
}

func TestEventSourceLiteralClassifiesSQS(t *testing.T) {
	root := parse(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"handler",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"event"},{"_type":"arg","arg":"context"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"If",
	     "test":{"_type":"Compare",
	       "left":{"_type":"Subscript",
	         "value":{"_type":"Name","id":"record"},
	         "slice":{"_type":"Constant","value":"eventSource"}},
	       "ops":[{"_type":"Eq"}],
	       "comparators":[{"_type":"Constant","value":"aws:sqs"}]},
	     "body":[{"_type":"Pass"}],"orelse":[]}]}]}`)

	got := event.Classify(root)
	if got.Kind != event.SQS {
		t.Fatalf("Kind = %s, want SQS", got.Kind)
	}
	if got.Confidence < 0.9 {
		t.Errorf("Confidence = %.2f, want >= 0.9", got.Confidence)
	}
}

func TestAPIGatewayKeys(t *testing.T) {
	root := parse(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"handler",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"event"},{"_type":"arg","arg":"context"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Assign",
	     "targets":[{"_type":"Name","id":"method"}],
	     "value":{"_type":"Subscript",
	       "value":{"_type":"Name","id":"event"},
	       "slice":{"_type":"Constant","value":"httpMethod"}}}]}]}`)

	got := event.Classify(root)
	if got.Kind != event.APIGateway {
		t.Fatalf("Kind = %s, want APIGateway", got.Kind)
	}
	if got.Confidence < 0.85 {
		t.Errorf("Confidence = %.2f, want >= 0.85", got.Confidence)
	}
}

func TestNoHandlerIsUnknown(t *testing.T) {
	root := parse(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"compute",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"data"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Return",
	     "value":{"_type":"Subscript",
	       "value":{"_type":"Name","id":"data"},
	       "slice":{"_type":"Constant","value":"s3"}}}]}]}`)

	got := event.Classify(root)
	if got.Kind != event.Unknown {
		t.Fatalf("Kind = %s, want Unknown", got.Kind)
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %.2f, want 0", got.Confidence)
	}
}

func TestChainOnOtherVariableIgnored(t *testing.T) {
	root := parse(t, `{"_type":"Module","body":[
	  {"_type":"FunctionDef","name":"handler",
	   "args":{"_type":"arguments","posonlyargs":[],
	     "args":[{"_type":"arg","arg":"event"},{"_type":"arg","arg":"context"}],
	     "defaults":[],"kwonlyargs":[],"kw_defaults":[]},
	   "decorator_list":[],
	   "body":[{"_type":"Assign",
	     "targets":[{"_type":"Name","id":"method"}],
	     "value":{"_type":"Subscript",
	       "value":{"_type":"Name","id":"payload"},
	       "slice":{"_type":"Constant","value":"httpMethod"}}}]}]}`)

	got := event.Classify(root)
	if got.Kind != event.Unknown {
		t.Fatalf("Kind = %s, want Unknown (evidence: %v)", got.Kind, got.Evidence)
	}
}
