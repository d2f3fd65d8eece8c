package config

// ProjectFileName is the default project file looked up by the CLI.
const ProjectFileName = "schemec.yaml"

// TypedModuleExt is the extension of YAML-serialized typed modules.
const TypedModuleExt = ".typed.yaml"

// OutputFileExt is the extension of emitted Scheme libraries.
const OutputFileExt = ".sls"

// Prelude and runtime library names
const (
	// PreludeModule is the module that defines the builtin types and
	// constructors. It is always imported and never registered as a
	// discovered dependency.
	PreludeModule = "gleam"

	// BaseImport is the host library imported by every unit.
	BaseImport = "chezscheme"

	DefaultLineWidth = 80
)

// Reserved variable names introduced by the front end
const (
	PipeVariable    = "_pipe"
	CaptureVariable = "_capture"
)

// Naming sigils used by the generator. Source identifiers can never start
// with either character, so generated names cannot collide with them.
const (
	LocalSigil     = "$"
	TemporarySigil = "%"
)

// Prelude constructor names with a native runtime encoding
const (
	TrueCtorName  = "True"
	FalseCtorName = "False"
	NilCtorName   = "Nil"
)

// Messages carried by runtime failures emitted into generated code
const (
	TodoDefaultMessage  = "`todo` expression evaluated. This code has not yet been implemented."
	PanicDefaultMessage = "`panic` expression evaluated."
	CaseNoMatchMessage  = "no case clause matched"
	AssertFailedMessage = "pattern match failed in let assert"
)
