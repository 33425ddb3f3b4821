package diag

import "fmt"

// Code is a stable numeric diagnostic identifier. The code space is
// partitioned by pipeline stage: 1xxx bridge, 2xxx type inference,
// 3xxx ownership, 4xxx codegen, 5xxx fix-up, 9xxx driver.
type Code uint16

const (
	UnknownCode Code = 0

	// AST bridge.
	BridgeInfo                   Code = 1000
	BridgeUnsupportedConstruct   Code = 1001
	BridgeAttributeTupleUnpack   Code = 1002
	BridgeMalformedAST           Code = 1003
	BridgeUnknownDecorator       Code = 1004
	BridgeCoroutineUnsupported   Code = 1005
	BridgeDynamicEvalUnsupported Code = 1006

	// Type inference.
	InferInfo               Code = 2000
	InferUnresolvedType     Code = 2001
	InferConflict           Code = 2002
	InferDynamicFallback    Code = 2003
	InferUnknownAnnotation  Code = 2004

	// Ownership analysis.
	OwnInfo           Code = 3000
	OwnCloneFallback  Code = 3001
	OwnParamConflict  Code = 3002

	// Code generation.
	GenInfo                Code = 4000
	GenConstraintViolation Code = 4001
	GenDynamicCarrier      Code = 4002
	GenDefaultFallback     Code = 4003

	// Fix-up pipeline.
	FixInfo             Code = 5000
	FixPreconditionSkip Code = 5001
	FixPassFired        Code = 5002

	// Driver / configuration.
	DrvInfo          Code = 9000
	DrvParserFailure Code = 9001
	DrvBadDirective  Code = 9002
	DrvCacheSkipped  Code = 9003
)

func (c Code) String() string {
	return fmt.Sprintf("DPY%04d", uint16(c))
}
