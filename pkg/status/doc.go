/*
Package status reports patch outcomes to the user.

	            +-------------+
	            |   Result    |
	            |  (engine)   |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|  Console  |           | zerolog |
	|  (pterm)  |           | (debug) |
	+-----------+           +---------+

🎯 Purpose:
- Prints the status line for a patched document with its line counts
- Surfaces unanchored sections, missing markers and replacement outcomes
- Renders anchor resolution and heading outlines as tables

📝 Every message is mirrored to the zerolog logger carried in the context, so
--debug output and console output never disagree.
*/
package status
