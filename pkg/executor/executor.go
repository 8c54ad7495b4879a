package executor

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	"github.com/pseudomuto/oraclekeeper/pkg/journal"
	"github.com/pseudomuto/oraclekeeper/pkg/preprocess"
	"github.com/pseudomuto/oraclekeeper/pkg/script"
	"github.com/pseudomuto/oraclekeeper/pkg/splitter"
	"github.com/pseudomuto/oraclekeeper/pkg/utils"
)

type (
	// Executor runs migration scripts statement by statement, checkpointing
	// progress in the journal so a failed script resumes where it stopped.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{
	//		DB:       client,
	//		Journal:  j,
	//		Splitter: splitter.New("/"),
	//	})
	//
	//	results, err := exec.Upgrade(ctx, dir.Scripts, map[string]string{"env": "prod"})
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	for _, result := range results {
	//		fmt.Printf("%s: %s\n", result.Script, result.Status)
	//	}
	Executor struct {
		db               connection.Manager
		journal          *journal.Journal
		splitter         splitter.Splitter
		preprocessors    []preprocess.Preprocessor
		variablesEnabled bool
		logOutput        bool
		output           io.Writer
		commandTimeout   time.Duration
		lock             LockFunc
		logger           *slog.Logger
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// DB provides the connection statements are executed on
		DB connection.Manager

		// Journal records script outcomes
		Journal *journal.Journal

		// Splitter turns processed script text into statements
		Splitter splitter.Splitter

		// Preprocessors run in order after variable substitution
		Preprocessors []preprocess.Preprocessor

		// VariablesEnabled turns on $name$ substitution
		VariablesEnabled bool

		// LogOutput runs every statement as a query and writes its rows to Output
		LogOutput bool

		// Output receives statement output (default: io.Discard)
		Output io.Writer

		// CommandTimeout bounds each statement execution. Zero means no limit.
		CommandTimeout time.Duration

		// Lock, when set, is held for the duration of Upgrade
		Lock LockFunc

		// Logger receives progress messages (default: slog.Default())
		Logger *slog.Logger
	}

	// LockFunc acquires an exclusive migration lock and returns the function
	// releasing it.
	LockFunc func(context.Context) (release func(context.Context) error, err error)

	// ExecutionResult contains the result of executing a single script.
	ExecutionResult struct {
		// Script is the name of the script that was executed
		Script string

		// Status indicates the outcome of the execution
		Status ExecutionStatus

		// Error contains any error that occurred during execution
		Error error

		// ExecutionTime records how long the execution took
		ExecutionTime time.Duration

		// StatementsApplied is the number of statements that have succeeded,
		// including those applied by earlier attempts
		StatementsApplied int

		// TotalStatements is the number of statements in the script
		TotalStatements int

		// ResumedAt is the index execution started from (0 for a fresh run)
		ResumedAt int
	}

	// ExecutionStatus represents the outcome of a script execution.
	ExecutionStatus string

	// PendingScript is a script that has not completed yet.
	PendingScript struct {
		// Script is the pending script
		Script *script.Script

		// ResumeIndex is the statement the next run starts at
		ResumeIndex int

		// FailureRemark is the error recorded by the last attempt, if any
		FailureRemark *string
	}
)

const (
	// StatusSuccess indicates the script was executed successfully
	StatusSuccess ExecutionStatus = "success"

	// StatusFailed indicates the script execution failed
	StatusFailed ExecutionStatus = "failed"

	// StatusSkipped indicates the script was skipped (already applied)
	StatusSkipped ExecutionStatus = "skipped"
)

// New creates a new Executor with the provided configuration.
func New(config Config) *Executor {
	e := &Executor{
		db:               config.DB,
		journal:          config.Journal,
		splitter:         config.Splitter,
		preprocessors:    config.Preprocessors,
		variablesEnabled: config.VariablesEnabled,
		logOutput:        config.LogOutput,
		output:           config.Output,
		commandTimeout:   config.CommandTimeout,
		lock:             config.Lock,
		logger:           config.Logger,
	}

	if e.output == nil {
		e.output = io.Discard
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Prepare returns the statements executed for s: variables are substituted
// (when enabled), the configured preprocessors are applied in order and the
// result is split.
func (e *Executor) Prepare(s *script.Script, variables map[string]string) ([]string, error) {
	preprocessors := e.preprocessors
	if e.variablesEnabled {
		preprocessors = append([]preprocess.Preprocessor{preprocess.Variables(variables)}, preprocessors...)
	}

	contents, err := preprocess.Apply(s.Contents, preprocessors...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to preprocess %s", s.Name)
	}

	return e.splitter.Split(contents), nil
}

// Execute runs a single script.
//
// A script whose latest journal entry is a failure resumes at the recorded
// statement index after the statements before it are validated against the
// recorded checksum. A *DriftError is returned, and nothing is executed, when
// they no longer match. A statement failure is recorded in the journal and
// returned as a *StatementError. Scripts that already completed are not run
// again.
func (e *Executor) Execute(ctx context.Context, s *script.Script, variables map[string]string) error {
	return e.execute(ctx, s, variables).Error
}

// Upgrade executes every script that has not completed yet, in order, and
// stops at the first failure. The returned results cover the scripts that
// were visited; a failed script is reported through its result.
//
// Example usage:
//
//	results, err := exec.Upgrade(ctx, dir.Scripts, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, result := range results {
//		switch result.Status {
//		case executor.StatusSuccess:
//			fmt.Printf("✓ %s completed in %v\n", result.Script, result.ExecutionTime)
//		case executor.StatusFailed:
//			fmt.Printf("✗ %s failed: %v\n", result.Script, result.Error)
//		case executor.StatusSkipped:
//			fmt.Printf("- %s already applied\n", result.Script)
//		}
//	}
func (e *Executor) Upgrade(ctx context.Context, scripts []*script.Script, variables map[string]string) ([]*ExecutionResult, error) {
	if e.lock != nil {
		release, err := e.lock(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to acquire migration lock")
		}

		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				e.logger.Error("Failed to release migration lock", "error", err)
			}
		}()
	}

	completed, err := e.journal.ListCompletedScripts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load completed scripts")
	}

	done := make(map[string]bool, len(completed))
	for _, name := range completed {
		done[name] = true
	}

	results := make([]*ExecutionResult, 0, len(scripts))
	for _, s := range scripts {
		if done[s.Name] {
			results = append(results, &ExecutionResult{Script: s.Name, Status: StatusSkipped})
			continue
		}

		result := e.execute(ctx, s, variables)
		results = append(results, result)

		// Stop execution on first failure
		if result.Status == StatusFailed {
			break
		}
	}

	return results, nil
}

// Pending returns the scripts that have not completed, in the given order,
// along with the statement index each would resume from.
func (e *Executor) Pending(ctx context.Context, scripts []*script.Script) ([]*PendingScript, error) {
	exists, err := e.journal.HasTable(ctx)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]*journal.Entry)
	if exists {
		entries, err := e.journal.Entries(ctx)
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			latest[entry.ScriptName] = entry
		}
	}

	var pending []*PendingScript
	for _, s := range scripts {
		entry := latest[s.Name]
		if entry == nil {
			pending = append(pending, &PendingScript{Script: s})
			continue
		}

		if entry.Completed() {
			continue
		}

		p := &PendingScript{Script: s, FailureRemark: entry.FailureRemark}
		if entry.FailureIndex != nil {
			p.ResumeIndex = *entry.FailureIndex
		}
		pending = append(pending, p)
	}

	return pending, nil
}

func (e *Executor) execute(ctx context.Context, s *script.Script, variables map[string]string) *ExecutionResult {
	startTime := time.Now()
	result := &ExecutionResult{Script: s.Name}

	fail := func(err error) *ExecutionResult {
		result.Status = StatusFailed
		result.Error = err
		result.ExecutionTime = time.Since(startTime)
		return result
	}

	statements, err := e.Prepare(s, variables)
	if err != nil {
		return fail(err)
	}
	result.TotalStatements = len(statements)

	startIndex, err := e.resumeIndex(ctx, s, statements)
	if err != nil {
		return fail(err)
	}

	if startIndex < 0 {
		e.logger.Info("Script already applied", "script", s.Name)
		result.Status = StatusSkipped
		result.StatementsApplied = len(statements)
		return result
	}

	if startIndex > 0 {
		e.logger.Info("Resuming script", "script", s.Name, "index", startIndex, "statements", len(statements))
	} else {
		e.logger.Info("Executing script", "script", s.Name, "statements", len(statements))
	}

	result.ResumedAt = startIndex
	result.StatementsApplied = startIndex

	err = e.db.WithConnection(ctx, func(ctx context.Context, conn connection.Conn) error {
		for i := startIndex; i < len(statements); i++ {
			if err := e.runStatement(ctx, conn, statements[i]); err != nil {
				return &StatementError{Script: s.Name, Index: i, Statement: statements[i], Err: err}
			}

			result.StatementsApplied++
		}

		return nil
	})

	// The outcome is journaled even when ctx was cancelled mid-script.
	recordCtx := context.WithoutCancel(ctx)

	var stmtErr *StatementError
	if errors.As(err, &stmtErr) {
		e.logger.Error("Statement failed",
			"script", s.Name,
			"index", stmtErr.Index,
			"error", stmtErr.Err,
		)

		if rerr := e.journal.RecordOutcome(recordCtx, s, statements, utils.Ptr(stmtErr.Index), utils.Ptr(stmtErr.Err.Error())); rerr != nil {
			return fail(errors.Wrapf(rerr, "failed to journal failure (%v)", stmtErr))
		}

		return fail(stmtErr)
	}

	if err != nil {
		return fail(errors.Wrapf(err, "failed to execute %s", s.Name))
	}

	if err := e.journal.RecordOutcome(recordCtx, s, statements, nil, nil); err != nil {
		return fail(err)
	}

	result.Status = StatusSuccess
	result.ExecutionTime = time.Since(startTime)
	e.logger.Info("Script applied", "script", s.Name, "duration", result.ExecutionTime)
	return result
}

// resumeIndex returns the index execution of s starts at, or -1 when the
// script already completed.
func (e *Executor) resumeIndex(ctx context.Context, s *script.Script, statements []string) (int, error) {
	entry, err := e.journal.Latest(ctx, s.Name)
	if err != nil {
		return 0, err
	}

	if entry == nil {
		return 0, nil
	}

	if entry.Completed() {
		return -1, nil
	}

	index := 0
	if entry.FailureIndex != nil {
		index = *entry.FailureIndex
	}

	if index == 0 {
		return 0, nil
	}

	if index > len(statements) {
		return 0, &DriftError{
			Script:   s.Name,
			Index:    index,
			Expected: entry.Hash,
			Actual:   journal.Checksum(statements),
		}
	}

	applied := statements[:index]
	valid, err := e.journal.Validate(ctx, s, applied)
	if err != nil {
		return 0, err
	}

	if !valid {
		return 0, &DriftError{
			Script:   s.Name,
			Index:    index,
			Expected: entry.Hash,
			Actual:   journal.Checksum(applied),
		}
	}

	return index, nil
}

func (e *Executor) runStatement(ctx context.Context, conn connection.Conn, stmt string) error {
	if e.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.commandTimeout)
		defer cancel()
	}

	if !e.logOutput {
		_, err := conn.ExecContext(ctx, stmt)
		return err
	}

	rows, err := conn.QueryContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if err := writeRows(e.output, rows); err != nil {
		return errors.Wrap(err, "failed to write statement output")
	}

	return nil
}
