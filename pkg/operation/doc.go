/*
Package operation runs docpatch jobs against files on disk.

	+-------------+
	|  Operator   |
	|   (Jobs)    |
	+------+------+
	       |
	+------+------+
	|   Runner    |
	| (errgroup)  |
	+------+------+
	       |
	+------+------+
	|    patch    |
	|  (Engine)   |
	+-------------+

🎯 Purpose:
- Resolves each job's target glob relative to the config file
- Pairs every target with its patch file
- Applies the job plan and persists the result atomically

🔄 Flow:
1. Resolve targets with doublestar, skipping patch and backup files
2. Load the document and the patch text
3. Run patch.Apply entirely in memory
4. Back up the original when asked, then write once

⚡ Concurrency:
Jobs run one after another unless the config sets async, in which case each
job runs in its own goroutine. A document is only ever touched by one job, and
the context is checked between files.

🧪 Dry runs never write; they return a line diff of what would change.
*/
package operation
