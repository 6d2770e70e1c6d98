package dispatch

import (
	"os"
	"strings"
)

// Environment holds the execution context for the verify command.
type Environment struct {
	ProjectRoot string
	StateDir    string
	DataFile    string
	RunID       string
	Keys        []string
	filteredEnv []string // lazily populated base env (os.Environ minus SPLICE_*)
}

// Vars returns the variable substitution map for commands.
func (e *Environment) Vars() map[string]string {
	return map[string]string{
		"DATA_FILE":    e.DataFile,
		"PROJECT_ROOT": e.ProjectRoot,
		"STATE_DIR":    e.StateDir,
		"RUN_ID":       e.RunID,
		"KEYS":         strings.Join(e.Keys, " "),
	}
}

// Result holds the outcome of a verify run.
type Result struct {
	ExitCode int
	Output   string
}

// BuildEnv returns the environment variables for child processes.
// It inherits the current environment and adds SPLICE_ variables, replacing
// any inherited ones. The base environment is snapshotted once per
// Environment and reused across calls.
func BuildEnv(env *Environment) []string {
	if env.filteredEnv == nil {
		for _, e := range os.Environ() {
			key := strings.SplitN(e, "=", 2)[0]
			if strings.HasPrefix(key, "SPLICE_") {
				continue
			}
			env.filteredEnv = append(env.filteredEnv, e)
		}
	}
	vars := env.Vars()
	result := make([]string, len(env.filteredEnv), len(env.filteredEnv)+len(vars))
	copy(result, env.filteredEnv)
	for _, k := range []string{"DATA_FILE", "PROJECT_ROOT", "STATE_DIR", "RUN_ID", "KEYS"} {
		result = append(result, "SPLICE_"+k+"="+vars[k])
	}
	return result
}

// ExpandVars substitutes $VAR and ${VAR} in template. Names resolve from
// vars, with or without the SPLICE_ prefix, then from the environment.
func ExpandVars(template string, vars map[string]string) string {
	return os.Expand(template, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		if v, ok := vars[strings.TrimPrefix(key, "SPLICE_")]; ok {
			return v
		}
		return os.Getenv(key)
	})
}
