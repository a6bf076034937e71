// Package host supervises the native witness-generation binary.
//
// The native host keeps process-wide read cursors and cannot run twice in
// one address space, so it is only ever driven as a separate OS process:
//
//   - Request.Args marshals a request into the binary's flag syntax
//   - Locator resolves the directory holding the release build
//   - Supervisor.Run spawns the binary, races it against a timeout and
//     force-terminates it when the deadline passes
//
// Timeout handling:
//   - The child is started in its own process group
//   - On timeout the whole group receives SIGKILL; there is no graceful phase
//   - With KillByName set, `pkill -f <binary>` runs afterwards as a last
//     resort. This reaches every process with that name on the host, so at
//     most one invocation per binary name may be in flight
//   - The call returns *TimeoutError carrying the elapsed time
//
// Exit statuses are not interpreted. A non-zero exit is a completed run;
// Result.Err converts it to *ExitError for callers that want an error.
//
// No retries are performed.
package host
