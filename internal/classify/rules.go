package classify

// Category names shared with the rewrite rule library and the
// reporter.
const (
	CategorySyntax          = "syntax"
	CategoryComponentProps  = "component-props"
	CategoryImportExports   = "import-exports"
	CategoryMissingImports  = "missing-imports"
	CategoryJSXRuntime      = "jsx-runtime"
	CategoryHoisting        = "hoisting"
	CategoryImplicitAny     = "implicit-any"
	CategoryTimeoutTypes    = "timeout-types"
	CategoryDuplicateStyles = "duplicate-styles"
	CategoryRuntimeEnv      = "runtime-env-types"
	CategoryTestMocks       = "test-mocks"
)

// builtinRules is the default ordered table. Specific predicates come
// before general ones: a props mismatch that also mentions 'any' must
// land in component-props, not implicit-any.
func builtinRules() []Rule {
	return []Rule{
		{
			Category: CategorySyntax,
			Priority: 1,
			Match: CodeIn("TS1005", "TS1109", "TS1128", "TS1136",
				"TS1381", "TS1382", "TS17008"),
		},
		{
			Category: CategoryComponentProps,
			Priority: 1,
			Match: Any(
				All(MessageContains("does not exist on type"),
					Any(MessageContains("Props"), MessageContains("IntrinsicAttributes"))),
				All(MessageContains("not assignable to type"),
					MessageContains("Props")),
			),
		},
		{
			Category: CategoryImportExports,
			Priority: 2,
			Match: Any(
				MessageContains("has no exported member"),
				MessageContains("has no default export"),
			),
		},
		{
			Category: CategoryJSXRuntime,
			Priority: 2,
			Match: Any(
				All(CodeIn("TS2307"), Any(MessageContains("react"), MessageContains("jsx-runtime"))),
				All(CodeIn("TS7026", "TS2875"), MessageMatches(`(?i)jsx`)),
			),
		},
		{
			Category: CategoryMissingImports,
			Priority: 2,
			Match:    MessageContains("Cannot find name"),
		},
		{
			Category: CategoryHoisting,
			Priority: 3,
			Match: Any(
				MessageContains("used before its declaration"),
				MessageContains("used before being assigned"),
			),
		},
		{
			Category: CategoryImplicitAny,
			Priority: 3,
			Match: Any(
				CodeIn("TS7006", "TS7031", "TS7053", "TS7015"),
				MessageContains("implicitly has an 'any' type"),
			),
		},
		{
			Category: CategoryTimeoutTypes,
			Priority: 4,
			Match: All(MessageContains("Timeout"),
				MessageContains("not assignable to type")),
		},
		{
			Category: CategoryDuplicateStyles,
			Priority: 4,
			Match: All(MessageContains("is specified more than once"),
				MessageContains("style")),
		},
		{
			Category: CategoryRuntimeEnv,
			Priority: 4,
			Match: Any(
				MessageContains("D1Database"),
				MessageContains("KVNamespace"),
				MessageContains("DurableObjectNamespace"),
			),
		},
		{
			Category: CategoryTestMocks,
			Priority: 5,
			Match: Any(
				FileGlob("**/__tests__/**"),
				FileGlob("**/*.test.*"),
				FileGlob("**/*.spec.*"),
			),
		},
	}
}
