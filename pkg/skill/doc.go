/*
Package skill implements the skill aggregate and its update commands.

A Skill carries a concept card (explanation and worked examples) and a list of
misconceptions. Every edit is a history.Change over *Skill, so skills share the
undo/redo engine and the change-log stores with state graphs.

# Commands

  - update_skill_property: description, language_code.
  - update_skill_contents_property: explanation, worked_examples.
  - update_skill_misconceptions_property: name, notes, feedback of one misconception.
  - add_skill_misconception, delete_skill_misconception.
*/
package skill
