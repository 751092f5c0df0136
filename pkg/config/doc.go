/*
Package config loads docpatch job definitions.

	            +-------------+
	            |   Config    |
	            |   (Jobs)    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Describes what to patch (targets, patch files) and how (sections, anchors,
  replacements, substitutions) as data, so no document needs code changes
- Rejects unknown fields and ambiguous anchor rules up front

🔄 Flow:
1. Reads the file and picks a parser by extension
2. Decodes into Config
3. Validates every job by converting it into a patch.Plan

🔍 Example:

	jobs:
	  - name: auth-design
	    target: docs/designs/rails8-authentication-migration.md
	    substitutions:
	      - {old: "iteration: 1", new: "iteration: 2"}
	    sections:
	      - {id: "2.2.5", start: "INSERT AFTER SECTION 2.2", end: "## INSERT AFTER SECTION 3.3"}
	    anchors:
	      - {id: "2.2.5", prefix: "### 2.3"}
	      - {id: "13", end_of_file: true}
*/
package config
