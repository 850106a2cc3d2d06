package lang

func init() {
	builtin(typeScriptSpec(TSX, []string{".tsx"}))
}
