// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package kernel implements the core of a preemptive multitasking scheduler:
// a thread pool, a per-CPU executor, and the blocking primitives (condition
// variables, semaphores, futexes) that let threads suspend and resume without
// busy-waiting.
//
// # Architecture
//
// A [ThreadPool] owns every thread's state and chooses the next runnable
// thread via the round-robin priority policy in scheduler.go, a concrete
// type with no interface for substituting another policy. A [Processor] is
// a per-CPU executor: it asks the pool for work, switches into the chosen
// thread's [Context], and runs until that thread yields, parks, or exits. A
// tick that requests preemption does not interrupt a running thread.
// Threads block via [Condvar], [Semaphore], or the address-keyed futex table
// in futex.go; all three suspend by calling into the owning [ThreadPool]
// rather than busy-waiting.
//
// This package runs hosted, on top of the Go runtime, rather than on bare
// metal: a "CPU" is a goroutine pinned to its own OS thread via
// runtime.LockOSThread, and a [Context] is a goroutine parked on a
// rendezvous channel rather than a raw saved register frame. See
// context.go and DESIGN.md for the rationale.
//
// # Thread Safety
//
// [ThreadPool] methods are safe for concurrent use from any Processor.
// A [Processor] itself is single-threaded by construction: only its owning
// goroutine ever touches its fields, always with interrupts logically
// disabled (see interrupt.go) around scheduling decisions.
//
// # Execution Model
//
// Within one [Processor.Run] iteration:
//
//  1. Ask the pool for the next runnable thread ([ThreadPool.Run]).
//  2. Switch into it (switchTo in context.go); this returns when the
//     thread yields, blocks, or exits.
//  3. Hand the (possibly mutated) context back to the pool
//     ([ThreadPool.Stop]).
//  4. If the pool had no work, enable interrupts and wait (enableAndWFI)
//     before retrying.
//
// # Usage
//
//	pool := kernel.NewThreadPool()
//	proc := kernel.NewProcessor(0, pool)
//	pool.Add(nil, func(t *kernel.Thread) {
//	    fmt.Println("hello from", t.Tid())
//	}, kernel.DefaultPriority, kernel.AnyCPU)
//	go proc.Run()
package kernel
