// SPDX-License-Identifier: BSD-3-Clause

// Package registry is the Service Registry: a static, declarative
// catalog of the services the supervisor manages,
// built once at startup and read lock-free thereafter.
//
// The default catalog (New) reproduces the personal-assistant stack's
// service list - memory, tools, gateway, llm, whisper, piper,
// chatterbox, kokoro, frontend - as Service values. Callers embedding this
// supervisor in a different stack build their own []Service and pass it
// to NewFromServices instead.
package registry
