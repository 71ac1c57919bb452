// Package fuzztests houses Go fuzz harnesses for the front of the pipeline:
// YAML crate descriptions are lowered to HIR and every owner is indexed.
//
// Назначение: lowering arbitrary bytes must end in diagnostics or a crate,
// never a panic, and a crate that lowers must index into well-formed owners
// with a reproducible crate hash.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lowerfile, internal/hirmap,
// internal/query, internal/diag, internal/testkit.

package fuzztests
