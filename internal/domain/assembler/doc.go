/*
Package assembler turns the three editor buffers into one self-contained
HTML document for the preview sandbox.

# Document layout

	<!DOCTYPE html>
	<html lang="en">
	<head>
	  charset + viewport meta, title
	  <style> CSS buffer, verbatim </style>
	</head>
	<body>
	  body content extracted from the HTML buffer
	  <script> console relay instrumentation </script>
	  <script> try { JS buffer } catch (error) { report } </script>
	</body>
	</html>

The instrumentation and the user script are separate script elements so a
syntax error in user code still reaches the instrumentation's global error
listener instead of silently killing both.

# Guarantees

Assemble is pure and deterministic: the same State always yields the same
bytes. It never fails. Nothing is sanitized; isolation is the sandbox's job.
*/
package assembler
