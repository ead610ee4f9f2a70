// Package storage provides EnclaveStore implementations and a URI-scheme
// factory for selecting one at startup.
//
// Supported schemes:
//
//	memory://                          - in-process map, for tests and dev
//	file:///var/lib/enclaves          - one JSON file per enclave
//	dynamodb://table-name?region=...  - DynamoDB table, production default
//	vault://host:8200/secret/enclaves - Vault KV v2 mount
//
// All backends share the same contract: Get returns
// interfaces.ErrEnclaveNotFound for unknown ids, UpdateStatus writes only
// the status field and the modification timestamp, and Delete refuses
// records that are not in a terminal state.
package storage
