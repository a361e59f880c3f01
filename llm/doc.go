// Package llm is a provider-agnostic model invocation runtime.
//
// Design goals:
//   - One uniform contract over heterogeneous vendor APIs: Model sequences
//     parameter validation, callback dispatch, the provider primitive,
//     streaming aggregation, and error normalization around each call.
//   - Declarative per-model schemas: parameter rules and rate tables live in
//     the schema registry, not in code.
//   - Stable error taxonomy: backends declare an ErrorTable and callers only
//     ever see InvokeError kinds, never vendor-native error types.
//   - Explicit observability: Callback hooks fire at four lifecycle points,
//     with per-callback control over whether hook failures propagate.
//
// Provider implementations live under providers/ and are responsible for
// mapping between the canonical model and each vendor's wire format.
package llm
