/*
Package outline lists the headings of a markdown document so anchor rules
can be written against the lines they will actually match.

🎯 Purpose:
- Walks the goldmark AST and records every ATX and setext heading
- Reports the 0-based source line of each heading, the index anchor rules resolve to
- Filters to numbered headings ("## 4.", "### 2.3") for rule authoring
*/
package outline
