// SPDX-License-Identifier: MPL-2.0

package issue

import "github.com/charmbracelet/glamour"

// Id identifies a catalog entry. The zero value means no entry.
type Id int

const (
	ModuleNotFoundId Id = iota + 1
	ModuleLoadFailedId
	DescriptorInvalidId
	ConfigLoadFailedId
	PermissionDeniedId
	RequireCycleId
	ScriptExecutionFailedId
)

// Issue is a catalog entry: Markdown guidance for one kind of failure.
type Issue struct {
	id    Id
	mdMsg string
}

func (i *Issue) Id() Id {
	return i.id
}

// Render renders the issue as terminal markdown. stylePath is a glamour
// style name or JSON style file; "" selects the default style.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.mdMsg, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found

No file matched the specifier.

## How specifiers are resolved
1. Builtin names (` + "`path`, `module`" + `) are returned as they are
2. Specifiers starting with ` + "`./`, `../` or `/`" + ` are probed as files:
   the exact path, then each registered extension, then ` + "`index`" + ` in the
   directory, then the ` + "`main`" + ` field of its package descriptor
3. Anything else is searched for in ` + "`node_modules`" + ` directories,
   from the requiring file's directory up to the filesystem root

## Things you can try
- See every path that was checked:
~~~
$ modsys resolve <specifier> --from <file> --explain
~~~
- Check the extension order with ` + "`modsys config show`",
	}

	moduleLoadFailedIssue = &Issue{
		id: ModuleLoadFailedId,
		mdMsg: `
# Module failed to load

The file was found but its handler returned an error. The module stays in
the cache unloaded unless ` + "`evict_on_error`" + ` is enabled.

## Things you can try
- Run again with ` + "`--verbose`" + ` to see the full error chain
- Check the syntax of the file for its extension
- Make sure every module it requires can be resolved`,
	}

	descriptorInvalidIssue = &Issue{
		id: DescriptorInvalidId,
		mdMsg: `
# Invalid package descriptor

A package descriptor exists in the directory but could not be parsed, or its
` + "`main`" + ` field is not a string.

## Example descriptor
~~~json
{"main": "lib/entry"}
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

## Things you can try
- Print the effective configuration:
~~~
$ modsys config show
~~~
- Write a fresh default file:
~~~
$ modsys config init --force
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

A directory or file on the search path could not be read. Only missing paths
are skipped while resolving; any other filesystem error stops resolution.

## Things you can try
- Check the permissions of the directories between the requiring file and the root`,
	}

	requireCycleIssue = &Issue{
		id: RequireCycleId,
		mdMsg: `
# Require cycle

The modules require each other, so there is no order in which every
dependency loads first. Cycles are allowed at load time: the second module
sees the first one's exports as they were when the cycle was entered.`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Script execution failed

A shell module exited with a non-zero status.

## Things you can try
- Use ` + "`exports NAME VALUE`" + ` to publish bindings
- Use ` + "`require SPEC`" + ` to read another module's exports as JSON`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():        moduleNotFoundIssue,
		moduleLoadFailedIssue.Id():      moduleLoadFailedIssue,
		descriptorInvalidIssue.Id():     descriptorInvalidIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
		requireCycleIssue.Id():          requireCycleIssue,
		scriptExecutionFailedIssue.Id(): scriptExecutionFailedIssue,
	}
)

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
