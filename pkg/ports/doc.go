/*
Package ports defines the driven ports (interfaces) of the lattice editor.

These interfaces decouple document editing from storage, so the same editor
works against memory, files, SQLite, Redis or a Loam repository.

# Key Interfaces

  - GraphSource: loads the baseline state graph of a document.
  - ChangeLogStore: appends and loads versioned change lists (commits).
  - DistributedLocker: coordinates writers of one document across replicas.
*/
package ports
