package memory

var templates = map[Kind]string{
	KindSymbols: functionsHeader,
	KindRules: `# Project Rules

Each rule is a level-3 heading "[ID] description" followed by
Pattern, Files, Action (BLOCK or WARN) and Enabled lines.

`,
	KindAttempts: `# Failed Attempts

Commands that failed before. Entries marked DONT_RETRY should not be repeated.

`,
	KindDiscovery: `# Discovery Log

## Explored Areas

`,
	KindArchitecture: `# Project Architecture

## Structure

## Patterns

(Add project-specific patterns here)
`,
}
