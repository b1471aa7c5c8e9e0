// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/llm-fuse/internal/commands"
	"github.com/temirov/llm-fuse/internal/config"
	"github.com/temirov/llm-fuse/internal/types"
	"github.com/temirov/llm-fuse/internal/utils"
)

const (
	rootUse              = "llm-fuse [directory]"
	rootShortDescription = "aggregate a directory or repository into LLM-ready text files"
	rootLongDescription  = `llm-fuse collects the text files of a local directory or a shallow clone of a Git
repository and writes them into one output document with a summary header and a file
system diagram. Files above --max-tokens approximate tokens are split into chunks; chunk
k of every split file is written to a numbered sibling of the output file.`
	rootUsageExample = `  # Aggregate the current directory into output.txt
  llm-fuse

  # Aggregate Go sources of a repository branch, 2000 tokens per chunk
  llm-fuse --repo https://github.com/org/project.git --branch main --include '\.go$' --max-tokens 2000

  # Use the git index and copy the result to the clipboard
  llm-fuse ./service --git --copy --output context.md`

	repoFlagName             = "repo"
	branchFlagName           = "branch"
	includeFlagName          = "include"
	excludeFlagName          = "exclude"
	gitFlagName              = "git"
	outputFlagName           = "output"
	maxTokensFlagName        = "max-tokens"
	includeGitFlagName       = "include-git"
	skipDirectoryFlagName    = "skip-dir"
	copyFlagName             = "copy"
	configFlagName           = "config"
	versionFlagName          = "version"
	globalFlagName           = "global"
	forceFlagName            = "force"
	repoFlagDescription      = "URL of a Git repository to clone and aggregate instead of a directory"
	branchFlagDescription    = "branch to clone with --repo"
	includeFlagDescription   = "regular expression a file path must match to be included"
	excludeFlagDescription   = "regular expression that excludes matching file paths"
	gitFlagDescription       = "list files with git ls-files instead of walking the directory"
	outputFlagDescription    = "primary output file; chunk k is written next to it with a _k suffix"
	maxTokensDescription     = "split files above this many approximate tokens"
	includeGitDescription    = "include the .git directory when walking"
	skipDirectoryDescription = "directory name to skip while walking (repeatable)"
	copyFlagDescription      = "copy the primary output document to the clipboard"
	configFlagDescription    = "configuration file to use instead of ./" + utils.LocalConfigurationFileName
	versionFlagDescription   = "display application version"
	versionTemplate          = "llm-fuse version: %s\n"

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to ./` + utils.LocalConfigurationFileName + `,
or with --global to ~/` + utils.ConfigurationDirectoryName + `/` + utils.ConfigurationFileName + `.`
	globalFlagDescription   = "write the global configuration file"
	forceFlagDescription    = "overwrite an existing configuration file"
	configurationWritten    = "Configuration written"
	repositoryWithDirectory = "%w: a directory argument cannot be combined with --%s"
)

// runOptions stores the values bound to root command flags.
type runOptions struct {
	repositoryURL   string
	branch          string
	includePattern  string
	excludePattern  string
	useGit          bool
	outputPath      string
	maxTokens       int
	includeGit      bool
	skipDirectories []string
	copyToClipboard bool
	configPath      string
}

// Execute runs the llm-fuse application with process arguments.
func Execute(logger *zap.Logger) error {
	rootCommand := createRootCommand(commands.Collaborators{Logger: logger})
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(collaborators commands.Collaborators) *cobra.Command {
	var showVersion bool
	var options runOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			aggregateOptions, resolveError := resolveAggregateOptions(command, options, arguments)
			if resolveError != nil {
				return resolveError
			}
			_, aggregateError := commands.Aggregate(aggregateOptions, collaborators)
			return aggregateError
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}

	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	flags := rootCommand.Flags()
	flags.StringVar(&options.repositoryURL, repoFlagName, "", repoFlagDescription)
	flags.StringVar(&options.branch, branchFlagName, "", branchFlagDescription)
	flags.StringVar(&options.includePattern, includeFlagName, "", includeFlagDescription)
	flags.StringVar(&options.excludePattern, excludeFlagName, "", excludeFlagDescription)
	registerBooleanFlag(flags, &options.useGit, gitFlagName, gitFlagDescription)
	flags.StringVar(&options.outputPath, outputFlagName, types.DefaultOutputFileName, outputFlagDescription)
	registerPositiveIntegerFlag(flags, &options.maxTokens, maxTokensFlagName, maxTokensDescription)
	registerBooleanFlag(flags, &options.includeGit, includeGitFlagName, includeGitDescription)
	flags.StringArrayVar(&options.skipDirectories, skipDirectoryFlagName, nil, skipDirectoryDescription)
	registerBooleanFlag(flags, &options.copyToClipboard, copyFlagName, copyFlagDescription)
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)

	rootCommand.AddCommand(createInitCommand(collaborators.Logger))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// resolveAggregateOptions layers explicitly set flags over configuration file values.
func resolveAggregateOptions(command *cobra.Command, options runOptions, arguments []string) (commands.Options, error) {
	configuration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: options.configPath})
	if loadError != nil {
		return commands.Options{}, loadError
	}
	flags := command.Flags()

	resolved := commands.Options{
		RepositoryURL:   options.repositoryURL,
		Branch:          options.branch,
		IncludePattern:  configuration.Include,
		ExcludePattern:  configuration.Exclude,
		UseGit:          config.BoolValue(configuration.Git, false),
		OutputPath:      configuration.Output,
		MaxTokens:       config.IntValue(configuration.MaxTokens, types.Unbounded),
		IncludeGit:      config.BoolValue(configuration.IncludeGit, false),
		SkipDirectories: configuration.SkipDirectories,
		CopyToClipboard: config.BoolValue(configuration.Copy, false),
	}
	if len(arguments) > 0 {
		if options.repositoryURL != "" {
			return commands.Options{}, fmt.Errorf(repositoryWithDirectory, types.ErrConfiguration, repoFlagName)
		}
		resolved.Directory = arguments[0]
	}
	if flags.Changed(includeFlagName) {
		resolved.IncludePattern = options.includePattern
	}
	if flags.Changed(excludeFlagName) {
		resolved.ExcludePattern = options.excludePattern
	}
	if flags.Changed(gitFlagName) {
		resolved.UseGit = options.useGit
	}
	if flags.Changed(outputFlagName) || resolved.OutputPath == "" {
		resolved.OutputPath = options.outputPath
	}
	if flags.Changed(maxTokensFlagName) {
		resolved.MaxTokens = options.maxTokens
	}
	if flags.Changed(includeGitFlagName) {
		resolved.IncludeGit = options.includeGit
	}
	if flags.Changed(skipDirectoryFlagName) {
		resolved.SkipDirectories = utils.DeduplicatePatterns(options.skipDirectories)
	}
	if flags.Changed(copyFlagName) {
		resolved.CopyToClipboard = options.copyToClipboard
	}
	return resolved, nil
}

// createInitCommand returns the init subcommand.
func createInitCommand(logger *zap.Logger) *cobra.Command {
	var globalTarget bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			destinationPath, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			if logger != nil {
				logger.Info(configurationWritten, zap.String("path", destinationPath))
			}
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalTarget, globalFlagName, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, forceFlagDescription)
	return initCommand
}
