// Package engine is the credential fulfillment engine: the in-process
// surface the HTTP layer calls for uploads, reveals, review decisions, and
// stock request lifecycle operations. It composes the parser, vault,
// fulfillment machine, and reconciler, and owns the batch-level ledger
// entries.
package engine

import (
	"fmt"
	"strings"

	"github.com/vendorvault/vendorvault/internal/audit"
	"github.com/vendorvault/vendorvault/internal/batch"
	"github.com/vendorvault/vendorvault/internal/db"
	"github.com/vendorvault/vendorvault/internal/fulfillment"
	"github.com/vendorvault/vendorvault/internal/notify"
	"github.com/vendorvault/vendorvault/internal/reconcile"
	"github.com/vendorvault/vendorvault/internal/vault"
)

// Engine wires the fulfillment components together.
type Engine struct {
	database   *db.DB
	vault      *vault.Vault
	machine    *fulfillment.Machine
	reconciler *reconcile.Reconciler
	ledger     *audit.Ledger
	rules      *batch.RuleSet
	notifier   *notify.Notifier
}

// New creates the engine. notifier may be nil.
func New(database *db.DB, v *vault.Vault, machine *fulfillment.Machine, reconciler *reconcile.Reconciler, ledger *audit.Ledger, rules *batch.RuleSet, notifier *notify.Notifier) *Engine {
	return &Engine{
		database:   database,
		vault:      v,
		machine:    machine,
		reconciler: reconciler,
		ledger:     ledger,
		rules:      rules,
		notifier:   notifier,
	}
}

// Vault exposes the vault for read paths (listings, profile allocation).
func (e *Engine) Vault() *vault.Vault {
	return e.vault
}

// Reconciler exposes the reconciler for read paths (stock summaries).
func (e *Engine) Reconciler() *reconcile.Reconciler {
	return e.reconciler
}

// ValidationError reports an upload whose rows all failed validation.
// Row-level issues are partial-batch tolerant; this error only occurs when
// nothing at all imported.
type ValidationError struct {
	Rows []batch.RowError
}

func (e *ValidationError) Error() string {
	if len(e.Rows) == 0 {
		return "no valid credential rows"
	}
	reasons := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		reasons = append(reasons, r.Error())
	}
	return fmt.Sprintf("no valid credential rows: %s", strings.Join(reasons, "; "))
}
