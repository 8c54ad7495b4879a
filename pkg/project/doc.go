// Package project manages the on-disk layout of an oraclekeeper project.
//
// A project is a directory containing the configuration file and the
// migration scripts it points at:
//
//	project-root/
//	├── oraclekeeper.yaml       # Connection, journal and script settings
//	└── db/
//	    └── migrations/         # Scripts, applied in lexical order
//	        ├── 001_create_users.sql
//	        └── 002_seed_users.sql
//
// Initialize creates whatever is missing from that layout and never
// overwrites existing files, so it is safe to run in an existing project.
package project
