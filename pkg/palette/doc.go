/*
Package palette contains the in-repo palette providers.

DefaultProvider contributes the selection-mode tools, the connect toggle, a
separator and four creation actions. ParticipantProvider is an optional,
selection-aware provider that contributes a pool creation entry.
Providers are registered on a registry.Registry, which merges them.
*/
package palette
