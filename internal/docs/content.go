package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with splice",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "Config file schema, fields, and defaults",
		Content: topicConfig,
	},
	{
		Name:    "sources",
		Title:   "Lesson Sources",
		Summary: "Markdown + front matter format for replacement payloads",
		Content: topicSources,
	},
	{
		Name:    "manifest",
		Title:   "Manifests",
		Summary: "Batch several replace, insert and delete ops in one run",
		Content: topicManifest,
	},
	{
		Name:    "boundaries",
		Title:   "Block Boundaries",
		Summary: "How a keyed block is located and where it ends",
		Content: topicBoundaries,
	},
	{
		Name:    "safety",
		Title:   "Safety Model",
		Summary: "Locking, backups, verify hooks, undo and the journal",
		Content: topicSafety,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a project:

    cd your-project
    splice init --data-file src/data/lessonContent.ts

   This creates .splice/config.yaml and .splice/lessons/example.md.

2. See what the data file holds:

    splice list
    splice check

3. Write a lesson source (see 'splice docs sources') and preview the edit:

    splice replace cb_10 lessons/cb_10.md --dry-run

4. Apply it:

    splice replace cb_10 lessons/cb_10.md

   The content is validated against the configured rules first. Nothing is
   written if any check fails, and the command exits nonzero.

5. Changed your mind?

    splice undo
`

const topicConfig = `Configuration Reference
=======================

splice looks for .splice/config.yaml in the current directory and every
parent, and treats the directory holding it as the project root.

Fields
------

  data-file       (required) path to the data file, relative to the
                  project root or absolute.
  key-pattern     regex for keys that list and check treat as lesson
                  blocks. Default: '[a-z]+_\d+'
  indent          nesting unit used when rendering a block. Whitespace
                  only. Default: two spaces.
  verify          shell command run after every write. A nonzero exit
                  restores the previous file.
  verify-timeout  minutes before verify is killed. Default: 5
  backups         backups kept in .splice/backups. Default: 20
  rules           validation rules, keyed by "default" or a key prefix.

Rules
-----

  min-chars, max-chars            content length in characters
  min-sections, max-sections      count of section markers
  min-takeaways, max-takeaways    number of takeaways
  section-pattern                 section marker regex.
                                  Default: '(?m)^## Part \d+'

Zero or absent means no bound. A key gets the "default" rules overlaid by
the longest rules entry whose name is a prefix of the key:

    rules:
      default:
        min-chars: 6000
        max-chars: 12000
        min-sections: 3
      cb_:
        min-chars: 8000      # cb_10 needs 8000..12000 chars

The --file flag overrides data-file for a single command.
`

const topicSources = `Lesson Sources
==============

A replacement payload is a Markdown file with YAML front matter:

    ---
    id: cb_10
    title: Reading Candlesticks
    takeaways:
      - A candle shows open, high, low and close.
      - Wicks mark the extremes of the period.
    ---
    ## Part 1: Anatomy
    ...

  id          optional; defaults to the file name without extension.
              When present it must match the key being written.
  title       the block's title.
  takeaways   list of strings.

The body after the closing --- becomes the content, with leading and
trailing blank lines removed. splice escapes backticks, backslashes and
${ for you; write the Markdown as-is.

Check a source against the rules without touching the data file:

    splice lint lessons/cb_10.md
`

const topicManifest = `Manifests
=========

A manifest lists operations applied in order to one in-memory copy of the
data file:

    ops:
      - replace: cb_10
        source: lessons/cb_10.md
        until: cb_11            # optional, see 'splice docs boundaries'
      - insert: fe_5
        after: fe_4             # or before: fe_6
        source: lessons/fe_5.md
      - delete: ta_9

    splice apply patch.yaml --dry-run
    splice apply patch.yaml

Sources are resolved relative to the manifest. Unknown fields are errors.

All or nothing: if any op fails (missing key, failed rules, an insert of a
key that already exists) the data file is not written at all.

Inserted blocks reuse the anchor block's indentation.
`

const topicBoundaries = `Block Boundaries
================

A keyed block starts at the quoted key followed by a colon and an opening
brace:

    "cb_10": {

Brace matching (default)
  The block ends at the brace that closes the opening one. Braces inside
  strings, template literals and comments are ignored, and ${ ... }
  expressions inside template literals are counted on their own.

Sentinel (--until KEY, or until: in a manifest)
  The block ends at the last closing brace before the next occurrence of
  "KEY":. Use this when the block holds something the brace matcher cannot
  follow.

Either way every byte outside the block is left exactly as it was, and the
key is re-located after splicing to confirm it finds the new block.

If a key opens more than one block the first is used and a warning is
logged; 'splice list' flags duplicates.
`

const topicSafety = `Safety Model
============

Every edit command runs the same sequence:

  1. take .splice/lock (a second concurrent run fails at once)
  2. read the data file and hash it
  3. plan every op in memory and validate each payload
  4. back up the original bytes to .splice/backups/
  5. write through a temp file and rename, after checking the file's hash
     has not changed since step 2
  6. run verify, if configured, and restore the backup if it fails
  7. record the run in .splice/journal.json

Any failure before step 5 leaves the data file byte-for-byte unchanged.

Verify
  The command runs via bash in the project root. These are expanded in the
  command and exported with a SPLICE_ prefix:

    $DATA_FILE      absolute path of the data file
    $PROJECT_ROOT   directory holding .splice/
    $STATE_DIR      the .splice/ directory
    $RUN_ID         id of this run
    $KEYS           space-separated keys touched

  Output is shown and saved to .splice/logs/<run id>.log.
  Skip it for one run with --no-verify.

Undo
  'splice undo' restores the newest backup of the data file and removes it;
  run it again to step further back.

History
  'splice history' prints the journal: command, keys, status, hashes and
  backup of each run.

A stale lock from a killed run can be removed by hand: rm .splice/lock
`
