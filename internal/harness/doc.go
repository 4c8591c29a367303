// Package harness replays block event scenarios through the detection engine
// and a real SQLite tag store.
//
// Each scenario runs against a fresh database file with a manual clock and
// sequential tag ids, so the produced trace is byte-identical across runs and
// can be compared against a golden file.
//
// # Scenario Format
//
//	name: place_push_break
//	description: "A pushed ephemeral tag follows its block"
//	ephemeral_ttl: 3s
//	restrictions:
//	  mode: BLACKLIST
//	  materials: [BEDROCK]
//	steps:
//	  - op: put
//	    block: { world: world, x: 12, y: 45, z: -234, material: STONE }
//	    ephemeral: true
//	  - op: move
//	    blocks:
//	      - { world: world, x: 12, y: 45, z: -234, material: STONE }
//	    direction: { dy: 1 }
//	  - op: advance
//	    duration: 2s
//	  - op: check
//	    action: BREAK
//	    block: { world: world, x: 12, y: 46, z: -234, material: STONE }
//	    expect: true
//	assertions:
//	  - type: tag_present
//	    at: { world: world, x: 12, y: 46, z: -234 }
//	  - type: tag_count
//	    count: 1
//
// Step ops are put, remove, move, advance and check. Assertion types are
// tag_present, tag_absent and tag_count, evaluated against the store after
// the last step.
package harness
