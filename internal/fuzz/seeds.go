package fuzztests

const maxSeedBytes = 64 << 10 // 64 KiB

// eventSeeds are representative rg --json lines, valid and broken.
var eventSeeds = []string{
	`{"type":"begin","data":{"path":{"text":"a.txt"}}}`,
	`{"type":"match","data":{"path":{"text":"a.txt"},"lines":{"text":"foo two\n"},"line_number":2,"absolute_offset":4,"submatches":[{"match":{"text":"foo"},"start":0,"end":3}]}}`,
	`{"type":"context","data":{"path":{"text":"a.txt"},"lines":{"text":"one\n"},"line_number":1,"absolute_offset":0,"submatches":[]}}`,
	`{"type":"match","data":{"path":{"bytes":"/w=="},"lines":{"bytes":"Zm9vCg=="},"line_number":1,"absolute_offset":0,"submatches":[{"match":{"text":"foo"},"start":0,"end":3}]}}`,
	`{"type":"end","data":{"path":{"text":"a.txt"},"binary_offset":null,"stats":{}}}`,
	`{"type":"summary","data":{"elapsed_total":{"secs":0,"nanos":1},"stats":{"matches":2}}}`,
	`{"type":"match","data":{}}`,
	`{"type":"nope"}`,
	`{`,
	``,
}

// argSeeds are argument vectors joined with NUL.
var argSeeds = []string{
	"foo\x00--replace\x00bar",
	"-R\x00x\x00--diff\x00out.diff\x00src",
	"--replace=x\x00-C5\x00-n\x00--json",
	"--diff\x00--iterative\x00-R",
	"--context\x007\x00--replace\x00--replace",
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
