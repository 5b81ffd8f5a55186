package sqlite

const schema = `
BEGIN TRANSACTION;

CREATE TABLE
	IF NOT EXISTS users (
		id TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created datetime NOT NULL,
		updated datetime NOT NULL,
		PRIMARY KEY ("id")
	);

CREATE TABLE
	IF NOT EXISTS profiles (
		user_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		major TEXT,
		student_id TEXT,
		updated datetime NOT NULL,
		PRIMARY KEY ("user_id"),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS sessions (
		token TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created datetime NOT NULL,
		PRIMARY KEY ("token"),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	);

CREATE TABLE
	IF NOT EXISTS projects (
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		department TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 0 CHECK (level BETWEEN 0 AND 5),
		creator_name TEXT,
		file_url TEXT,
		files_urls TEXT NOT NULL DEFAULT '[]',
		video_url TEXT,
		github_url TEXT,
		created datetime NOT NULL,
		updated datetime NOT NULL,
		PRIMARY KEY ("id"),
		FOREIGN KEY (user_id) REFERENCES users (id)
	);

CREATE TABLE
	IF NOT EXISTS project_ratings (
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		date datetime NOT NULL,
		PRIMARY KEY ("project_id", "user_id"),
		FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);

CREATE TABLE
	IF NOT EXISTS project_likes (
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		date datetime NOT NULL,
		PRIMARY KEY ("project_id", "user_id"),
		FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);

CREATE TABLE
	IF NOT EXISTS project_reviews (
		id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		comment TEXT NOT NULL,
		created datetime NOT NULL,
		updated datetime NOT NULL,
		PRIMARY KEY ("id"),
		UNIQUE (project_id, user_id),
		FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);

CREATE TABLE
	IF NOT EXISTS project_collaborators (
		id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'collaborator' CHECK (role IN ('owner', 'collaborator')),
		added datetime NOT NULL,
		PRIMARY KEY ("id"),
		UNIQUE (project_id, user_id),
		FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);

CREATE TABLE
	IF NOT EXISTS collaboration_invites (
		id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		inviter_id TEXT NOT NULL,
		invitee_email TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'declined')),
		created datetime NOT NULL,
		PRIMARY KEY ("id"),
		FOREIGN KEY (project_id) REFERENCES projects (id) ON DELETE CASCADE,
		FOREIGN KEY (inviter_id) REFERENCES users (id)
	);

CREATE INDEX IF NOT EXISTS "Invitee Email Index" ON "collaboration_invites" ("invitee_email", "status");

CREATE INDEX IF NOT EXISTS "Project Author Index" ON "projects" ("user_id");

COMMIT;
`
