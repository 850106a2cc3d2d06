package lang

func init() {
	builtin(&LanguageSpec{
		Language:          Lua,
		FileExtensions:    []string{".lua"},
		FunctionNodeTypes: []string{"function_declaration"},
		CallNodeTypes:     []string{"function_call"},
		SelfNames:         []string{"self"},
		Behavior:          genericBehavior{sep: "."},
	})
}
