package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	booleanFlagTypeName         = "bool"
	positiveIntegerFlagTypeName = "positive-int"
	booleanFlagTrueLiteral      = "true"
	booleanAcceptedValues       = "true, false, yes, no, on, off, 1, 0"
	invalidBooleanValueFormat   = "invalid boolean value %q for --%s; accepted values: %s"
	invalidIntegerValueFormat   = "invalid value %q for --%s: must be a positive integer"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// separableBooleanLiterals may follow a boolean flag as a separate argument. Short spellings
// such as "y" or "1" are only accepted in the --flag=value form since they are also directory names.
var separableBooleanLiterals = map[string]struct{}{
	"true":  {},
	"false": {},
	"yes":   {},
	"no":    {},
	"on":    {},
	"off":   {},
}

func interpretBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = booleanFlagTrueLiteral
	}
	parsed, ok := booleanFlagLiterals[normalized]
	return parsed, ok
}

// booleanFlagValue accepts the usual boolean spellings, including "--flag yes".
type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	parsed, ok := interpretBooleanLiteral(input)
	if !ok {
		return fmt.Errorf(invalidBooleanValueFormat, input, value.flagKey, booleanAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, usage string) {
	*target = false
	flagSet.Var(&booleanFlagValue{target: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(false)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// positiveIntegerFlagValue rejects zero, negative and non-numeric input at parse time.
type positiveIntegerFlagValue struct {
	target  *int
	flagKey string
}

func (value *positiveIntegerFlagValue) Set(input string) error {
	parsed, parseError := strconv.Atoi(strings.TrimSpace(input))
	if parseError != nil || parsed <= 0 {
		return fmt.Errorf(invalidIntegerValueFormat, input, value.flagKey)
	}
	*value.target = parsed
	return nil
}

func (value *positiveIntegerFlagValue) String() string {
	if value == nil || value.target == nil || *value.target <= 0 {
		return ""
	}
	return strconv.Itoa(*value.target)
}

func (value *positiveIntegerFlagValue) Type() string {
	return positiveIntegerFlagTypeName
}

func registerPositiveIntegerFlag(flagSet *pflag.FlagSet, target *int, name string, usage string) {
	flagSet.Var(&positiveIntegerFlagValue{target: target, flagKey: name}, name, usage)
}

// normalizeBooleanFlagArguments rewrites "--flag <literal>" into "--flag=<literal>" for boolean
// flags of command so a following positional directory is never consumed as a value.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	booleanFlags := map[string]struct{}{}
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, "--") && !strings.Contains(currentArgument, "=") && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, "--")
			nextArgument := arguments[index+1]
			if _, isBoolean := booleanFlags[flagName]; isBoolean && strings.TrimSpace(nextArgument) != "" {
				if _, isLiteral := separableBooleanLiterals[strings.ToLower(strings.TrimSpace(nextArgument))]; isLiteral {
					normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, nextArgument))
					index++
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}
